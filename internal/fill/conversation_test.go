package fill_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/officemind/docagent/internal/api"
	"github.com/officemind/docagent/internal/fill"
	"github.com/officemind/docagent/internal/session"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeTempDoc(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("template body"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func startedConversation(t *testing.T, srvURL string) *fill.Conversation {
	t.Helper()
	conv := fill.NewConversation(api.NewClient(srvURL, api.WithAttempts(1), api.WithRetryDelay(time.Millisecond)),
		session.NewStore(), discardLogger())
	if err := conv.Start(context.Background(), writeTempDoc(t, "form.docx")); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return conv
}

func TestConversationStart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/document-fill/start" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("start was not multipart: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"session_id":"srv-1","stage":"analyze"}`))
	}))
	defer srv.Close()

	conv := startedConversation(t, srv.URL)
	if conv.SessionID() != "srv-1" {
		t.Errorf("SessionID() = %q, want srv-1", conv.SessionID())
	}
	if conv.Stage() != fill.StageAnalyze {
		t.Errorf("Stage() = %s, want analyze", conv.Stage())
	}
}

func TestConversationRespond(t *testing.T) {
	t.Run("success confirms the turn and records counters", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			switch r.URL.Path {
			case "/api/document-fill/start":
				w.Write([]byte(`{"success":true,"session_id":"srv-1","stage":"conversational-qa","current_question":1,"total_questions":5}`))
			case "/api/document-fill/respond":
				var body map[string]string
				json.NewDecoder(r.Body).Decode(&body)
				if body["session_id"] != "srv-1" {
					t.Errorf("respond carried session_id %q", body["session_id"])
				}
				if body["message"] != "第一题的答案" {
					t.Errorf("respond carried message %q", body["message"])
				}
				w.Write([]byte(`{"success":true,"session_id":"srv-1","stage":"conversational-qa","response":"收到，下一个问题","current_question":2,"total_questions":5}`))
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
			}
		}))
		defer srv.Close()

		conv := startedConversation(t, srv.URL)
		reply, err := conv.Respond(context.Background(), "第一题的答案")
		if err != nil {
			t.Fatalf("Respond() error = %v", err)
		}
		if reply != "收到，下一个问题" {
			t.Errorf("reply = %q", reply)
		}

		tr := conv.Transcript()
		if len(tr) != 2 {
			t.Fatalf("expected user+assistant entries, got %d", len(tr))
		}
		if tr[0].Role != fill.RoleUser || tr[0].State != fill.StateConfirmed {
			t.Errorf("user entry = %+v, want confirmed user", tr[0])
		}
		if tr[1].Role != fill.RoleAssistant || tr[1].State != fill.StateConfirmed {
			t.Errorf("assistant entry = %+v, want confirmed assistant", tr[1])
		}

		cur, total := conv.Progress()
		if cur != 2 || total != 5 {
			t.Errorf("Progress() = %d/%d, want 2/5", cur, total)
		}
	})

	t.Run("failure keeps the user turn and appends a fallback", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if r.URL.Path == "/api/document-fill/start" {
				w.Write([]byte(`{"success":true,"session_id":"srv-1","stage":"conversational-qa"}`))
				return
			}
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		conv := startedConversation(t, srv.URL)
		_, err := conv.Respond(context.Background(), "答案")
		if err == nil {
			t.Fatal("expected error, got nil")
		}

		tr := conv.Transcript()
		if len(tr) != 2 {
			t.Fatalf("expected user+fallback entries, got %d", len(tr))
		}
		if tr[0].Role != fill.RoleUser || tr[0].State != fill.StatePendingLocal {
			t.Errorf("user entry = %+v, want pending-local user retained", tr[0])
		}
		if tr[1].Role != fill.RoleAssistant || tr[1].State != fill.StateFallback {
			t.Errorf("fallback entry = %+v", tr[1])
		}
		if tr[1].Text != "抱歉，本轮回复获取失败，请稍后重试。" {
			t.Errorf("fallback text = %q", tr[1].Text)
		}

		// The stage is unchanged by a failed turn.
		if conv.Stage() != fill.StageQA {
			t.Errorf("Stage() = %s after failed turn", conv.Stage())
		}
	})

	t.Run("empty message", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"success":true,"session_id":"srv-1","stage":"conversational-qa"}`))
		}))
		defer srv.Close()

		conv := startedConversation(t, srv.URL)
		if _, err := conv.Respond(context.Background(), ""); !api.IsKind(err, api.KindValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
		if len(conv.Transcript()) != 0 {
			t.Error("rejected turn must not touch the transcript")
		}
	})
}

func TestConversationBeforeStart(t *testing.T) {
	conv := fill.NewConversation(api.NewClient("http://127.0.0.1:1"), session.NewStore(), discardLogger())
	ctx := context.Background()

	if _, err := conv.Respond(ctx, "hi"); !api.IsKind(err, api.KindValidation) {
		t.Errorf("Respond: expected validation error, got %v", err)
	}
	if err := conv.SetStyle(ctx, "t1"); !api.IsKind(err, api.KindValidation) {
		t.Errorf("SetStyle: expected validation error, got %v", err)
	}
	if _, err := conv.Result(ctx); !api.IsKind(err, api.KindValidation) {
		t.Errorf("Result: expected validation error, got %v", err)
	}
	if _, err := conv.Download(ctx, "out.docx"); !api.IsKind(err, api.KindValidation) {
		t.Errorf("Download: expected validation error, got %v", err)
	}
}

func TestConversationStages(t *testing.T) {
	// The server owns the stage machine; whatever stage string it reports is
	// recorded verbatim, including a skipped optional stage.
	var stage string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/document-fill/start":
			w.Write([]byte(`{"success":true,"session_id":"srv-1","stage":"analyze"}`))
		case "/api/document-fill/set-style":
			w.Write([]byte(`{"success":true,"session_id":"srv-1","stage":"` + stage + `"}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	conv := startedConversation(t, srv.URL)

	stage = "conversational-qa"
	if err := conv.SetStyle(context.Background(), "t1"); err != nil {
		t.Fatal(err)
	}
	if conv.Stage() != fill.StageQA {
		t.Errorf("Stage() = %s, want conversational-qa", conv.Stage())
	}

	stage = "completed"
	if err := conv.SetStyle(context.Background(), "t1"); err != nil {
		t.Fatal(err)
	}
	if conv.Stage() != fill.StageCompleted {
		t.Errorf("Stage() = %s, want completed", conv.Stage())
	}
}
