// Package history lists past document operations and re-runs them.
package history

import (
	"context"
	"log/slog"
	"time"

	"github.com/officemind/docagent/internal/api"
	"github.com/officemind/docagent/internal/session"
)

// Entry is one past operation as the server records it.
type Entry struct {
	ID        string    `json:"id"`
	Operation string    `json:"operation"`
	FileName  string    `json:"file_name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Service calls the documents-history endpoints.
type Service struct {
	client *api.Client
	logger *slog.Logger
}

// NewService creates a history service.
func NewService(client *api.Client, logger *slog.Logger) *Service {
	return &Service{client: client, logger: logger}
}

type listResponse struct {
	Success bool    `json:"success"`
	History []Entry `json:"history"`
	Error   string  `json:"error,omitempty"`
}

// List fetches the operation history.
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	var resp listResponse
	if err := s.client.Get(ctx, "/api/documents/history", &resp); err != nil {
		return nil, err
	}
	return resp.History, nil
}

// ReapplyResponse acknowledges a re-run of a past operation.
type ReapplyResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id"`
	Error     string `json:"error,omitempty"`
}

// Reapply re-runs a past operation on its original document.
func (s *Service) Reapply(ctx context.Context, id string) (*ReapplyResponse, error) {
	if id == "" {
		return nil, api.Validationf("缺少历史记录ID")
	}

	var resp ReapplyResponse
	if err := s.client.Post(ctx, "/api/documents/history/"+id+"/reapply", nil, &resp); err != nil {
		return nil, err
	}
	s.logger.Info("history entry reapplied", "id", id, "session", resp.SessionID)
	return &resp, nil
}

// Upload re-runs a past operation on a newly uploaded document.
func (s *Service) Upload(ctx context.Context, id, path string) (*ReapplyResponse, error) {
	if id == "" {
		return nil, api.Validationf("缺少历史记录ID")
	}
	ref, err := session.ReadFileRef(path)
	if err != nil {
		return nil, err
	}

	var resp ReapplyResponse
	err = s.client.Upload(ctx, "/api/documents/history/"+id+"/upload",
		[]api.UploadFile{{FieldName: "file", Name: ref.Name, Content: ref.Content}},
		nil, nil, &resp)
	if err != nil {
		return nil, err
	}
	s.logger.Info("history entry rerun with new document", "id", id, "session", resp.SessionID)
	return &resp, nil
}
