package batch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/officemind/docagent/internal/poll"
)

// DefaultWatchInterval is how often the job list is re-fetched.
const DefaultWatchInterval = 5 * time.Second

// lister is the slice of Service the watcher needs.
type lister interface {
	List(ctx context.Context) ([]Job, error)
}

// Watcher mirrors the server's job list locally. Each successful poll
// replaces the whole snapshot; there is no incremental merge. A failed poll
// is logged and the previous snapshot stays visible.
type Watcher struct {
	svc      lister
	logger   *slog.Logger
	interval time.Duration

	mu   sync.Mutex
	jobs []Job
}

// NewWatcher creates a watcher polling at the given interval (the default
// is used when interval is zero).
func NewWatcher(svc lister, logger *slog.Logger, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	return &Watcher{svc: svc, logger: logger, interval: interval}
}

// Start begins continuous polling. The returned handle's Stop suppresses
// future ticks; an in-flight request is left to finish.
func (w *Watcher) Start(ctx context.Context) *poll.Handle {
	return poll.Start(ctx, w.interval, func(ctx context.Context) (bool, error) {
		if err := w.Refresh(ctx); err != nil {
			// Non-critical: keep the previous snapshot and keep polling.
			w.logger.Warn("job list refresh failed", "error", err)
		}
		return false, nil
	})
}

// Refresh fetches the job list once and replaces the local snapshot.
func (w *Watcher) Refresh(ctx context.Context) error {
	jobs, err := w.svc.List(ctx)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.jobs = jobs
	w.mu.Unlock()
	return nil
}

// Jobs returns a copy of the current snapshot.
func (w *Watcher) Jobs() []Job {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]Job, len(w.jobs))
	copy(out, w.jobs)
	return out
}
