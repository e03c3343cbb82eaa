package batch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/officemind/docagent/internal/api"
	"github.com/officemind/docagent/internal/session"
	"github.com/officemind/docagent/internal/validate"
)

// Service orchestrates batch operations against the server. All steps of
// one operation run strictly sequentially: each waits for the previous
// step's response before proceeding.
type Service struct {
	client *api.Client
	store  *session.Store
	logger *slog.Logger
}

// NewService creates a batch service.
func NewService(client *api.Client, store *session.Store, logger *slog.Logger) *Service {
	return &Service{client: client, store: store, logger: logger}
}

// UploadResponse is the server's answer to POST /api/upload.
type UploadResponse struct {
	Success  bool   `json:"success"`
	FilePath string `json:"file_path"`
	Error    string `json:"error,omitempty"`
}

// CreateRequest is the body of POST /api/batch/create.
type CreateRequest struct {
	Name             string           `json:"name"`
	Files            []string         `json:"files"`
	ProcessingConfig ProcessingConfig `json:"processing_config"`
}

// CreateResponse is the server's answer to POST /api/batch/create.
type CreateResponse struct {
	Success bool   `json:"success"`
	JobID   string `json:"job_id"`
	Error   string `json:"error,omitempty"`
}

// ListResponse is the server's answer to GET /api/batch/jobs.
type ListResponse struct {
	Success bool   `json:"success"`
	Jobs    []Job  `json:"jobs"`
	Error   string `json:"error,omitempty"`
}

// UploadFiles validates and uploads the given files one multipart POST at
// a time, recording each in the session, and returns the server-side file
// paths. Validation failures surface before any network call.
func (s *Service) UploadFiles(ctx context.Context, sessionID string, paths []string, onProgress api.ProgressFunc) ([]string, error) {
	if len(paths) == 0 {
		return nil, api.Validationf("请选择要上传的文件")
	}

	var serverPaths []string
	for _, path := range paths {
		ref, err := session.ReadFileRef(path)
		if err != nil {
			return nil, err
		}

		kind := validate.KindForExtension(ref.Name)
		if err := s.store.AddFile(sessionID, ref, kind); err != nil {
			return nil, err
		}

		if strings.EqualFold(filepath.Ext(ref.Name), ".pdf") {
			if err := validate.CheckPDF(path); err != nil {
				return nil, api.Validationf("%v", err)
			}
		}

		var resp UploadResponse
		err = s.client.Upload(ctx, "/api/upload",
			[]api.UploadFile{{FieldName: "file", Name: ref.Name, Content: ref.Content}},
			map[string]string{"batch_upload": "true"},
			onProgress, &resp)
		if err != nil {
			return nil, err
		}

		s.logger.Info("file uploaded", "name", ref.Name, "server_path", resp.FilePath)
		serverPaths = append(serverPaths, resp.FilePath)
	}

	return serverPaths, nil
}

// Create validates the processing config and creates a batch job over the
// uploaded files. Returns the server-assigned job id.
func (s *Service) Create(ctx context.Context, name string, files []string, cfg ProcessingConfig) (string, error) {
	if name == "" {
		return "", api.Validationf("任务名称不能为空")
	}
	if len(files) == 0 {
		return "", api.Validationf("任务必须包含至少一个文件")
	}
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	var resp CreateResponse
	if err := s.client.Post(ctx, "/api/batch/create", CreateRequest{
		Name:             name,
		Files:            files,
		ProcessingConfig: cfg,
	}, &resp); err != nil {
		return "", err
	}

	s.logger.Info("batch job created", "job_id", resp.JobID, "name", name, "files", len(files))
	return resp.JobID, nil
}

// Start begins processing a created job.
func (s *Service) Start(ctx context.Context, jobID string) error {
	if jobID == "" {
		return api.Validationf("缺少任务ID")
	}
	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error,omitempty"`
	}
	return s.client.Post(ctx, "/api/batch/start/"+jobID, nil, &resp)
}

// List fetches the server's current job list. A snapshot violating the
// progress invariants is rejected so a broken snapshot is never rendered.
func (s *Service) List(ctx context.Context) ([]Job, error) {
	var resp ListResponse
	if err := s.client.Get(ctx, "/api/batch/jobs", &resp); err != nil {
		return nil, err
	}

	for _, job := range resp.Jobs {
		if err := job.Progress.Validate(); err != nil {
			return nil, &api.Error{
				Kind:    api.KindProcessing,
				Message: fmt.Sprintf("job %s has inconsistent progress: %v", job.ID, err),
			}
		}
	}
	return resp.Jobs, nil
}

// Run performs the full upload -> create -> start sequence for one batch.
// Steps run in order and each waits for the previous step's resolution.
func (s *Service) Run(ctx context.Context, name string, paths []string, cfg ProcessingConfig, onProgress api.ProgressFunc) (string, error) {
	sess := s.store.Create(session.KindBatch)

	serverPaths, err := s.UploadFiles(ctx, sess.ID, paths, onProgress)
	if err != nil {
		return "", err
	}
	if err := s.store.Update(sess.ID, "uploaded", map[string]any{"files": serverPaths}); err != nil {
		return "", err
	}

	jobID, err := s.Create(ctx, name, serverPaths, cfg)
	if err != nil {
		return "", err
	}
	if err := s.store.Update(sess.ID, "created", map[string]any{"job_id": jobID}); err != nil {
		return "", err
	}

	if err := s.Start(ctx, jobID); err != nil {
		return "", err
	}
	if err := s.store.Update(sess.ID, "started", nil); err != nil {
		return "", err
	}

	return jobID, nil
}
