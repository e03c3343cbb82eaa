package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func TestUpload(t *testing.T) {
	t.Run("multipart body carries files and fields", func(t *testing.T) {
		var gotFilename, gotContent, gotField string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("ParseMultipartForm: %v", err)
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			gotField = r.FormValue("batch_upload")

			f, hdr, err := r.FormFile("file")
			if err != nil {
				t.Errorf("FormFile: %v", err)
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			defer f.Close()
			gotFilename = hdr.Filename
			data, _ := io.ReadAll(f)
			gotContent = string(data)

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"success":true,"file_id":"f1"}`))
		}))
		defer srv.Close()

		var resp struct {
			FileID string `json:"file_id"`
		}
		err := NewClient(srv.URL).Upload(context.Background(), "/api/upload",
			[]UploadFile{{Name: "report.docx", Content: []byte("document body")}},
			map[string]string{"batch_upload": "true"},
			nil, &resp)
		if err != nil {
			t.Fatalf("Upload() error = %v", err)
		}
		if resp.FileID != "f1" {
			t.Errorf("expected file_id=f1, got %q", resp.FileID)
		}
		if gotFilename != "report.docx" || gotContent != "document body" {
			t.Errorf("server saw file %q with content %q", gotFilename, gotContent)
		}
		if gotField != "true" {
			t.Errorf("expected batch_upload=true field, got %q", gotField)
		}
	})

	t.Run("progress is monotonic and reaches the total", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.Copy(io.Discard, r.Body)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"success":true}`))
		}))
		defer srv.Close()

		var mu sync.Mutex
		var reports []int64
		var total int64
		var ids []string

		err := NewClient(srv.URL).Upload(context.Background(), "/api/upload",
			[]UploadFile{{Name: "big.docx", Content: make([]byte, 256*1024)}},
			nil,
			func(id string, sent, t int64) {
				mu.Lock()
				reports = append(reports, sent)
				total = t
				ids = append(ids, id)
				mu.Unlock()
			}, nil)
		if err != nil {
			t.Fatalf("Upload() error = %v", err)
		}

		mu.Lock()
		defer mu.Unlock()
		if len(reports) == 0 {
			t.Fatal("expected at least one progress report")
		}
		for i := 1; i < len(reports); i++ {
			if reports[i] < reports[i-1] {
				t.Fatalf("progress went backwards: %d then %d", reports[i-1], reports[i])
			}
		}
		if last := reports[len(reports)-1]; last != total {
			t.Errorf("final report %d does not reach total %d", last, total)
		}
		for _, id := range ids {
			if id != ids[0] {
				t.Errorf("upload id changed mid-upload: %q vs %q", ids[0], id)
			}
		}
		if ids[0] == "" {
			t.Error("expected a non-empty upload id")
		}
	})

	t.Run("no files is a validation error", func(t *testing.T) {
		err := NewClient("http://127.0.0.1:1").Upload(context.Background(), "/api/upload", nil, nil, nil, nil)
		if !IsKind(err, KindValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("uploads are not retried", func(t *testing.T) {
		var count int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			count++
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		err := NewClient(srv.URL).Upload(context.Background(), "/api/upload",
			[]UploadFile{{Name: "a.docx", Content: []byte("x")}}, nil, nil, nil)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if count != 1 {
			t.Errorf("expected a single attempt, got %d", count)
		}
	})
}
