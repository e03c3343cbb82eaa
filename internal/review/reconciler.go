package review

import (
	"context"
	"log/slog"
	"time"

	"github.com/officemind/docagent/internal/api"
	"github.com/officemind/docagent/internal/poll"
)

// placeholderSessionID is the hardcoded id some older clients sent instead
// of a real session id. It is rejected like a missing id.
const placeholderSessionID = "current_session"

// DefaultSuggestionInterval is the poll interval while waiting for the
// server to finish generating suggestions.
const DefaultSuggestionInterval = 3 * time.Second

// Family describes one endpoint family sharing the reconciliation
// contract. Document review and style alignment differ only in paths.
type Family struct {
	Name     string
	itemBase string // PATCH {itemBase}/{session}/{item}, GET {itemBase}/{session}
	export   string // GET {export}/{session}
}

var (
	// DocumentReview reconciles review issues.
	DocumentReview = Family{
		Name:     "document-review",
		itemBase: "/api/document-review/suggestions",
		export:   "/api/document-review/export",
	}

	// StyleAlignment reconciles style changes.
	StyleAlignment = Family{
		Name:     "style-alignment",
		itemBase: "/api/style-alignment/changes",
		export:   "/api/style-alignment/export",
	}
)

// checkSessionID fails fast on a missing or placeholder session id, before
// any request is sent.
func checkSessionID(id string) error {
	if id == "" || id == placeholderSessionID {
		return api.Validationf("缺少有效的会话ID，请先开始一次处理")
	}
	return nil
}

// Reconciler applies accept/reject decisions for one endpoint family and
// keeps a local mirror of the session's suggestions.
type Reconciler struct {
	client *api.Client
	family Family
	logger *slog.Logger
	set    *Set
}

// NewReconciler creates a reconciler for the given family.
func NewReconciler(client *api.Client, family Family, logger *slog.Logger) *Reconciler {
	return &Reconciler{client: client, family: family, logger: logger, set: NewSet()}
}

// Set returns the local suggestion mirror.
func (r *Reconciler) Set() *Set { return r.set }

// ActionResponse is the server's answer to a single or batch action. The
// preview, when present, replaces any previous preview wholesale; the
// client never diffs previews.
type ActionResponse struct {
	Success bool   `json:"success"`
	Preview string `json:"preview,omitempty"`
	Error   string `json:"error,omitempty"`
}

type actionRequest struct {
	Action string `json:"action"`
}

// Apply sends one accept/reject decision as a partial update and, on
// acknowledgement, mirrors it locally. Repeating a decision the server has
// already acknowledged is a no-op locally and idempotent on the server.
func (r *Reconciler) Apply(ctx context.Context, sessionID, itemID string, action Action) (*ActionResponse, error) {
	if err := checkSessionID(sessionID); err != nil {
		return nil, err
	}
	if itemID == "" {
		return nil, api.Validationf("缺少建议ID")
	}
	if _, err := action.target(); err != nil {
		return nil, api.Validationf("%v", err)
	}

	var resp ActionResponse
	path := r.family.itemBase + "/" + sessionID + "/" + itemID
	if err := r.client.Patch(ctx, path, actionRequest{Action: string(action)}, &resp); err != nil {
		return nil, err
	}

	if changed, err := r.set.Apply(itemID, action); err != nil {
		// The server accepted a decision the local mirror cannot
		// represent; trust the server and log the divergence.
		r.logger.Warn("local suggestion state diverged", "family", r.family.Name, "item", itemID, "error", err)
	} else if changed {
		r.logger.Info("suggestion updated", "family", r.family.Name, "item", itemID, "action", action)
	}

	return &resp, nil
}

// ApplyAll applies one action to every pending suggestion in a single
// round trip. The local mirror is not reconciled id-by-id; the caller
// re-fetches the list and relies on the server's acknowledgement.
func (r *Reconciler) ApplyAll(ctx context.Context, sessionID string, action Action) (*ActionResponse, error) {
	if err := checkSessionID(sessionID); err != nil {
		return nil, err
	}

	batchAction := string(action) + "_all"
	var resp ActionResponse
	path := r.family.itemBase + "/" + sessionID + "/batch"
	if err := r.client.Patch(ctx, path, actionRequest{Action: batchAction}, &resp); err != nil {
		return nil, err
	}

	r.logger.Info("batch action applied", "family", r.family.Name, "session", sessionID, "action", batchAction)
	return &resp, nil
}

// suggestionsResponse is the server's suggestion list payload.
type suggestionsResponse struct {
	Success     bool         `json:"success"`
	Suggestions []Suggestion `json:"suggestions"`
	Error       string       `json:"error,omitempty"`
}

// Fetch retrieves the session's suggestions once and replaces the local
// mirror with them.
func (r *Reconciler) Fetch(ctx context.Context, sessionID string) ([]Suggestion, error) {
	if err := checkSessionID(sessionID); err != nil {
		return nil, err
	}

	var resp suggestionsResponse
	if err := r.client.Get(ctx, r.family.itemBase+"/"+sessionID, &resp); err != nil {
		return nil, err
	}

	r.set.Replace(resp.Suggestions)
	return resp.Suggestions, nil
}

// Await polls the suggestions endpoint until at least one suggestion
// arrives, then stops (one-shot completion). A poll error also stops the
// loop and is surfaced; the poll is never retried indefinitely.
func (r *Reconciler) Await(ctx context.Context, sessionID string, interval time.Duration) ([]Suggestion, error) {
	if err := checkSessionID(sessionID); err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = DefaultSuggestionInterval
	}

	var result []Suggestion
	h := poll.Start(ctx, interval, func(ctx context.Context) (bool, error) {
		items, err := r.Fetch(ctx, sessionID)
		if err != nil {
			return false, err
		}
		if len(items) == 0 {
			return false, nil
		}
		result = items
		return true, nil
	})

	if err := h.Wait(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

// Export downloads the reconciled document for the session.
func (r *Reconciler) Export(ctx context.Context, sessionID, filename string) (*api.Blob, error) {
	if err := checkSessionID(sessionID); err != nil {
		return nil, err
	}
	return r.client.Download(ctx, r.family.export+"/"+sessionID, filename)
}
