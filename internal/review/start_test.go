package review_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/officemind/docagent/internal/api"
	"github.com/officemind/docagent/internal/review"
	"github.com/officemind/docagent/internal/session"
)

func writeTempDoc(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("document body"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestStartReview(t *testing.T) {
	t.Run("returns the server session id", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/document-review/start" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("start was not multipart: %v", err)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"success":true,"session_id":"rev-7"}`))
		}))
		defer srv.Close()

		store := session.NewStore()
		id, err := review.StartReview(context.Background(), api.NewClient(srv.URL), store, discardLogger(), writeTempDoc(t, "draft.docx"))
		if err != nil {
			t.Fatalf("StartReview() error = %v", err)
		}
		if id != "rev-7" {
			t.Errorf("session id = %q", id)
		}

		hist := store.History()
		if len(hist) != 1 || hist[0].Kind != session.KindReview || len(hist[0].Files) != 1 {
			t.Errorf("review session not recorded: %+v", hist)
		}
	})

	t.Run("invalid file never reaches the network", func(t *testing.T) {
		var requests int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
		}))
		defer srv.Close()

		_, err := review.StartReview(context.Background(), api.NewClient(srv.URL), session.NewStore(), discardLogger(), writeTempDoc(t, "tool.exe"))
		if !api.IsKind(err, api.KindValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if requests != 0 {
			t.Errorf("validation failure must not reach the network, saw %d requests", requests)
		}
	})
}

func TestPreviewStyle(t *testing.T) {
	var gotTemplate string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("preview was not multipart: %v", err)
		}
		gotTemplate = r.FormValue("template_id")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"session_id":"sty-3","preview":"对齐后的文本","changes":[
			{"id":"c1","original_text":"口语","suggested_text":"书面语"}
		]}`))
	}))
	defer srv.Close()

	resp, err := review.PreviewStyle(context.Background(), api.NewClient(srv.URL), session.NewStore(), discardLogger(), writeTempDoc(t, "memo.docx"), "t1")
	if err != nil {
		t.Fatalf("PreviewStyle() error = %v", err)
	}
	if resp.SessionID != "sty-3" || resp.Preview != "对齐后的文本" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if len(resp.Changes) != 1 || resp.Changes[0].ID != "c1" {
		t.Errorf("changes = %+v", resp.Changes)
	}
	if gotTemplate != "t1" {
		t.Errorf("template_id field = %q", gotTemplate)
	}
}
