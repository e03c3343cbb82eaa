// Package style calls the writing-style endpoints: feature analysis and
// the persisted style template library.
package style

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/officemind/docagent/internal/api"
	"github.com/officemind/docagent/internal/session"
	"github.com/officemind/docagent/internal/validate"
)

// Template is a persisted writing-style profile. The client only ever
// caches a read-only list; templates live server-side.
type Template struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	CreatedAt       time.Time `json:"created_at"`
	ConfidenceScore float64   `json:"confidence_score"`
}

// Service drives writing-style analysis and keeps the template cache.
type Service struct {
	client *api.Client
	store  *session.Store
	logger *slog.Logger

	mu        sync.Mutex
	templates []Template
}

// NewService creates a style service.
func NewService(client *api.Client, store *session.Store, logger *slog.Logger) *Service {
	return &Service{client: client, store: store, logger: logger}
}

// AnalyzeResponse carries the extracted style features.
type AnalyzeResponse struct {
	Success  bool           `json:"success"`
	Features map[string]any `json:"features"`
	Error    string         `json:"error,omitempty"`
}

// Analyze uploads a sample document and returns its style features.
func (s *Service) Analyze(ctx context.Context, path string) (map[string]any, error) {
	ref, err := session.ReadFileRef(path)
	if err != nil {
		return nil, err
	}

	sess := s.store.Create(session.KindStyle)
	if err := s.store.AddFile(sess.ID, ref, validate.KindForExtension(ref.Name)); err != nil {
		return nil, err
	}

	var resp AnalyzeResponse
	err = s.client.Upload(ctx, "/api/writing-style/analyze",
		[]api.UploadFile{{FieldName: "file", Name: ref.Name, Content: ref.Content}},
		nil, nil, &resp)
	if err != nil {
		return nil, err
	}

	if err := s.store.Update(sess.ID, "analyzed", map[string]any{"features": resp.Features}); err != nil {
		s.logger.Warn("failed to record analysis result", "error", err)
	}
	return resp.Features, nil
}

type templatesResponse struct {
	Success   bool       `json:"success"`
	Templates []Template `json:"templates"`
	Error     string     `json:"error,omitempty"`
}

// Templates returns the cached template list.
func (s *Service) Templates() []Template {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Template, len(s.templates))
	copy(out, s.templates)
	return out
}

// RefreshTemplates re-fetches the template list. A failed refresh is
// non-critical: it is logged and the previous list stays in place.
func (s *Service) RefreshTemplates(ctx context.Context) []Template {
	var resp templatesResponse
	if err := s.client.Get(ctx, "/api/writing-style/templates", &resp); err != nil {
		s.logger.Warn("style template refresh failed, keeping previous list", "error", err)
		return s.Templates()
	}

	s.mu.Lock()
	s.templates = resp.Templates
	s.mu.Unlock()
	return s.Templates()
}

// SaveTemplateResponse carries the id of a newly persisted template.
type SaveTemplateResponse struct {
	Success    bool   `json:"success"`
	TemplateID string `json:"template_id"`
	Error      string `json:"error,omitempty"`
}

// SaveTemplate persists analyzed features as a named template.
func (s *Service) SaveTemplate(ctx context.Context, name string, features map[string]any) (string, error) {
	if name == "" {
		return "", api.Validationf("模板名称不能为空")
	}
	if len(features) == 0 {
		return "", api.Validationf("没有可保存的风格特征，请先分析文档")
	}

	var resp SaveTemplateResponse
	err := s.client.Post(ctx, "/api/writing-style/save-template", map[string]any{
		"name":     name,
		"features": features,
	}, &resp)
	if err != nil {
		return "", err
	}

	s.logger.Info("style template saved", "template_id", resp.TemplateID, "name", name)
	return resp.TemplateID, nil
}
