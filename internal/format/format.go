// Package format calls the format-alignment endpoints and the persisted
// format template library.
package format

import (
	"context"
	"log/slog"
	"time"

	"github.com/officemind/docagent/internal/api"
	"github.com/officemind/docagent/internal/session"
	"github.com/officemind/docagent/internal/validate"
)

// Template is a persisted document-format profile.
type Template struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	CreatedAt       time.Time `json:"created_at"`
	ConfidenceScore float64   `json:"confidence_score"`
}

// Service drives format alignment.
type Service struct {
	client *api.Client
	store  *session.Store
	logger *slog.Logger
}

// NewService creates a format service.
func NewService(client *api.Client, store *session.Store, logger *slog.Logger) *Service {
	return &Service{client: client, store: store, logger: logger}
}

// AlignResponse is the formatted-document payload.
type AlignResponse struct {
	Success   bool   `json:"success"`
	Formatted string `json:"formatted_document"`
	Error     string `json:"error,omitempty"`
}

// Align uploads a document (and optionally a reference document whose
// format to match) and returns the aligned result.
func (s *Service) Align(ctx context.Context, path, referencePath string) (*AlignResponse, error) {
	ref, err := session.ReadFileRef(path)
	if err != nil {
		return nil, err
	}

	sess := s.store.Create(session.KindFormat)
	if err := s.store.AddFile(sess.ID, ref, validate.KindForExtension(ref.Name)); err != nil {
		return nil, err
	}

	files := []api.UploadFile{{FieldName: "file", Name: ref.Name, Content: ref.Content}}
	if referencePath != "" {
		refDoc, err := session.ReadFileRef(referencePath)
		if err != nil {
			return nil, err
		}
		if err := s.store.AddFile(sess.ID, refDoc, validate.KindForExtension(refDoc.Name)); err != nil {
			return nil, err
		}
		files = append(files, api.UploadFile{FieldName: "reference", Name: refDoc.Name, Content: refDoc.Content})
	}

	var resp AlignResponse
	if err := s.client.Upload(ctx, "/api/format-alignment", files, nil, nil, &resp); err != nil {
		return nil, err
	}

	if err := s.store.Update(sess.ID, "aligned", map[string]any{"formatted": resp.Formatted}); err != nil {
		s.logger.Warn("failed to record alignment result", "error", err)
	}
	return &resp, nil
}

type templatesResponse struct {
	Success   bool       `json:"success"`
	Templates []Template `json:"templates"`
	Error     string     `json:"error,omitempty"`
}

// Templates fetches the format template list.
func (s *Service) Templates(ctx context.Context) ([]Template, error) {
	var resp templatesResponse
	if err := s.client.Get(ctx, "/api/format-templates", &resp); err != nil {
		return nil, err
	}
	return resp.Templates, nil
}

// SaveTemplateResponse carries the id of a newly persisted template.
type SaveTemplateResponse struct {
	Success    bool   `json:"success"`
	TemplateID string `json:"template_id"`
	Error      string `json:"error,omitempty"`
}

// SaveTemplate uploads a reference document to persist its format as a
// named template.
func (s *Service) SaveTemplate(ctx context.Context, name, path string) (string, error) {
	if name == "" {
		return "", api.Validationf("模板名称不能为空")
	}
	ref, err := session.ReadFileRef(path)
	if err != nil {
		return "", err
	}

	res := validate.Validate(validate.File{Name: ref.Name, Size: ref.Size}, validate.KindForExtension(ref.Name))
	if !res.IsValid {
		return "", api.Validationf("%s", res.Errors[0])
	}

	var resp SaveTemplateResponse
	err = s.client.Upload(ctx, "/api/format-templates",
		[]api.UploadFile{{FieldName: "file", Name: ref.Name, Content: ref.Content}},
		map[string]string{"name": name}, nil, &resp)
	if err != nil {
		return "", err
	}

	s.logger.Info("format template saved", "template_id", resp.TemplateID, "name", name)
	return resp.TemplateID, nil
}

// ApplyTemplate formats a document using a persisted template.
func (s *Service) ApplyTemplate(ctx context.Context, templateID, path string) (*AlignResponse, error) {
	if templateID == "" {
		return nil, api.Validationf("缺少格式模板ID")
	}
	ref, err := session.ReadFileRef(path)
	if err != nil {
		return nil, err
	}

	sess := s.store.Create(session.KindFormat)
	if err := s.store.AddFile(sess.ID, ref, validate.KindForExtension(ref.Name)); err != nil {
		return nil, err
	}

	var resp AlignResponse
	err = s.client.Upload(ctx, "/api/format-templates/"+templateID+"/apply",
		[]api.UploadFile{{FieldName: "file", Name: ref.Name, Content: ref.Content}},
		nil, nil, &resp)
	if err != nil {
		return nil, err
	}

	if err := s.store.Update(sess.ID, "aligned", map[string]any{"formatted": resp.Formatted}); err != nil {
		s.logger.Warn("failed to record alignment result", "error", err)
	}
	return &resp, nil
}
