package review

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/officemind/docagent/internal/api"
	"github.com/officemind/docagent/internal/session"
	"github.com/officemind/docagent/internal/validate"
)

// StartResponse carries the server-assigned session id. The id must be
// threaded through every subsequent call for this session; there is no
// implicit "current" session.
type StartResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id"`
	Error     string `json:"error,omitempty"`
}

// StartReview uploads a document for review and returns the server session
// id to poll suggestions against.
func StartReview(ctx context.Context, client *api.Client, store *session.Store, logger *slog.Logger, path string) (string, error) {
	ref, err := attachFile(store, session.KindReview, path)
	if err != nil {
		return "", err
	}

	var resp StartResponse
	err = client.Upload(ctx, "/api/document-review/start",
		[]api.UploadFile{{FieldName: "file", Name: ref.Name, Content: ref.Content}},
		nil, nil, &resp)
	if err != nil {
		return "", err
	}

	logger.Info("review started", "file", ref.Name, "session", resp.SessionID)
	return resp.SessionID, nil
}

// PreviewResponse is the server's style-alignment preview: the rewritten
// document with pending changes highlighted, plus the change list.
type PreviewResponse struct {
	Success   bool         `json:"success"`
	SessionID string       `json:"session_id"`
	Preview   string       `json:"preview"`
	Changes   []Suggestion `json:"changes"`
	Error     string       `json:"error,omitempty"`
}

// PreviewStyle uploads a document for style alignment against a style
// template and returns the preview with its change list.
func PreviewStyle(ctx context.Context, client *api.Client, store *session.Store, logger *slog.Logger, path, templateID string) (*PreviewResponse, error) {
	ref, err := attachFile(store, session.KindStyle, path)
	if err != nil {
		return nil, err
	}

	fields := map[string]string{}
	if templateID != "" {
		fields["template_id"] = templateID
	}

	var resp PreviewResponse
	err = client.Upload(ctx, "/api/style-alignment/preview",
		[]api.UploadFile{{FieldName: "file", Name: ref.Name, Content: ref.Content}},
		fields, nil, &resp)
	if err != nil {
		return nil, err
	}

	logger.Info("style preview generated", "file", ref.Name, "session", resp.SessionID, "changes", len(resp.Changes))
	return &resp, nil
}

// attachFile validates a document and records it in a fresh session.
func attachFile(store *session.Store, kind session.Kind, path string) (session.FileRef, error) {
	ref, err := session.ReadFileRef(path)
	if err != nil {
		return session.FileRef{}, err
	}

	fileKind := validate.KindForExtension(ref.Name)
	if strings.EqualFold(filepath.Ext(ref.Name), ".pdf") {
		fileKind = validate.KindPDF
	}

	sess := store.Create(kind)
	if err := store.AddFile(sess.ID, ref, fileKind); err != nil {
		return session.FileRef{}, err
	}
	return ref, nil
}
