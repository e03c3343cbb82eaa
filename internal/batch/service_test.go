package batch_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/officemind/docagent/internal/api"
	"github.com/officemind/docagent/internal/batch"
	"github.com/officemind/docagent/internal/session"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeTempDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// batchServer records the order of batch API calls and the create payload.
type batchServer struct {
	mu      sync.Mutex
	calls   []string
	created batch.CreateRequest
}

func (b *batchServer) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/api/upload" && r.Method == http.MethodPost:
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("upload was not multipart: %v", err)
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			if r.FormValue("batch_upload") != "true" {
				t.Error("upload missing batch_upload=true field")
			}
			_, hdr, err := r.FormFile("file")
			if err != nil {
				t.Errorf("upload missing file part: %v", err)
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			b.calls = append(b.calls, "upload")
			w.Write([]byte(`{"success":true,"file_path":"/uploads/` + hdr.Filename + `"}`))

		case r.URL.Path == "/api/batch/create" && r.Method == http.MethodPost:
			if err := json.NewDecoder(r.Body).Decode(&b.created); err != nil {
				t.Errorf("bad create body: %v", err)
			}
			b.calls = append(b.calls, "create")
			w.Write([]byte(`{"success":true,"job_id":"job-42"}`))

		case strings.HasPrefix(r.URL.Path, "/api/batch/start/") && r.Method == http.MethodPost:
			b.calls = append(b.calls, "start:"+strings.TrimPrefix(r.URL.Path, "/api/batch/start/"))
			w.Write([]byte(`{"success":true}`))

		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func TestServiceRun(t *testing.T) {
	bs := &batchServer{}
	srv := httptest.NewServer(bs.handler(t))
	defer srv.Close()

	dir := t.TempDir()
	paths := []string{
		writeTempDoc(t, dir, "one.docx", "first document"),
		writeTempDoc(t, dir, "two.docx", "second document"),
	}

	store := session.NewStore()
	svc := batch.NewService(api.NewClient(srv.URL), store, discardLogger())

	jobID, err := svc.Run(context.Background(), "quarterly", paths,
		batch.ProcessingConfig{Operation: "format-align", Parallelism: 2}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if jobID != "job-42" {
		t.Errorf("expected job-42, got %q", jobID)
	}

	bs.mu.Lock()
	defer bs.mu.Unlock()

	want := []string{"upload", "upload", "create", "start:job-42"}
	if len(bs.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", bs.calls, want)
	}
	for i := range want {
		if bs.calls[i] != want[i] {
			t.Fatalf("call %d = %q, want %q (full sequence %v)", i, bs.calls[i], want[i], bs.calls)
		}
	}

	if len(bs.created.Files) != 2 {
		t.Errorf("create carried %d files, want 2", len(bs.created.Files))
	}
	if bs.created.Name != "quarterly" {
		t.Errorf("create name = %q", bs.created.Name)
	}

	// The session recorded every step.
	hist := store.History()
	if len(hist) != 1 {
		t.Fatalf("expected 1 session, got %d", len(hist))
	}
	sess := hist[0]
	if sess.Stage != "started" {
		t.Errorf("session stage = %q, want started", sess.Stage)
	}
	if len(sess.Files) != 2 {
		t.Errorf("session holds %d files, want 2", len(sess.Files))
	}
	if sess.Results["job_id"] != "job-42" {
		t.Errorf("session job_id = %v", sess.Results["job_id"])
	}
}

func TestServiceRunValidationStopsBeforeNetwork(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer srv.Close()

	dir := t.TempDir()
	bad := writeTempDoc(t, dir, "tool.exe", "MZ")

	svc := batch.NewService(api.NewClient(srv.URL), session.NewStore(), discardLogger())
	_, err := svc.Run(context.Background(), "job", []string{bad}, batch.ProcessingConfig{Operation: "x"}, nil)
	if !api.IsKind(err, api.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "不支持的文件格式") {
		t.Errorf("expected format message, got %v", err)
	}
	if requests != 0 {
		t.Errorf("validation failure must not reach the network, saw %d requests", requests)
	}
}

func TestServiceCreate(t *testing.T) {
	t.Run("empty name", func(t *testing.T) {
		svc := batch.NewService(api.NewClient("http://127.0.0.1:1"), session.NewStore(), discardLogger())
		_, err := svc.Create(context.Background(), "", []string{"/uploads/a.docx"}, batch.ProcessingConfig{Operation: "x"})
		if !api.IsKind(err, api.KindValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("no files", func(t *testing.T) {
		svc := batch.NewService(api.NewClient("http://127.0.0.1:1"), session.NewStore(), discardLogger())
		_, err := svc.Create(context.Background(), "job", nil, batch.ProcessingConfig{Operation: "x"})
		if !api.IsKind(err, api.KindValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	})
}

func TestProcessingConfigValidate(t *testing.T) {
	t.Run("missing operation", func(t *testing.T) {
		err := batch.ProcessingConfig{}.Validate()
		if !api.IsKind(err, api.KindValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("parallelism out of range", func(t *testing.T) {
		err := batch.ProcessingConfig{Operation: "x", Parallelism: 99}.Validate()
		if !api.IsKind(err, api.KindValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("valid config", func(t *testing.T) {
		if err := (batch.ProcessingConfig{Operation: "x", Parallelism: 4}).Validate(); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})

	t.Run("operation alone is enough", func(t *testing.T) {
		if err := (batch.ProcessingConfig{Operation: "convert"}).Validate(); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})
}

func TestServiceList(t *testing.T) {
	t.Run("returns the snapshot", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"success":true,"jobs":[
				{"id":"j1","name":"a","status":"processing","progress":{"processed":1,"total":3,"successful":1,"failed":0},"total_files":3},
				{"id":"j2","name":"b","status":"completed","progress":{"processed":2,"total":2,"successful":1,"failed":1},"total_files":2}
			]}`))
		}))
		defer srv.Close()

		svc := batch.NewService(api.NewClient(srv.URL), session.NewStore(), discardLogger())
		jobs, err := svc.List(context.Background())
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(jobs) != 2 || jobs[0].ID != "j1" || jobs[1].Status != batch.StatusCompleted {
			t.Errorf("unexpected jobs: %+v", jobs)
		}
	})

	t.Run("rejects inconsistent progress", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"success":true,"jobs":[
				{"id":"j1","name":"a","status":"processing","progress":{"processed":5,"total":3,"successful":0,"failed":0},"total_files":3}
			]}`))
		}))
		defer srv.Close()

		svc := batch.NewService(api.NewClient(srv.URL), session.NewStore(), discardLogger())
		_, err := svc.List(context.Background())
		if !api.IsKind(err, api.KindProcessing) {
			t.Fatalf("expected processing error for broken snapshot, got %v", err)
		}
	})
}

func TestProgressValidate(t *testing.T) {
	cases := []struct {
		name    string
		p       batch.Progress
		wantErr bool
	}{
		{"zero", batch.Progress{}, false},
		{"in flight", batch.Progress{Processed: 2, Total: 5, Successful: 1, Failed: 1}, false},
		{"processed over total", batch.Progress{Processed: 6, Total: 5}, true},
		{"outcomes over processed", batch.Progress{Processed: 1, Total: 5, Successful: 1, Failed: 1}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.p.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
