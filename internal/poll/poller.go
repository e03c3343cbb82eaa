// Package poll provides a cancellable fixed-interval polling primitive.
//
// Polling loops carry no timeout of their own: they run until the tick
// reports completion, the tick fails, Stop is called, or the context is
// cancelled. Stop is cooperative — it suppresses future ticks but does not
// abort a tick already in flight.
package poll

import (
	"context"
	"sync"
	"time"
)

// TickFunc is one poll iteration. Returning done=true stops the loop
// cleanly; returning an error stops the loop and surfaces the error.
type TickFunc func(ctx context.Context) (done bool, err error)

// Handle controls a running poll loop.
type Handle struct {
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}

	mu  sync.Mutex
	err error
}

// Stop suppresses all future ticks. It is safe to call more than once and
// safe to call concurrently with the loop finishing on its own.
func (h *Handle) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// Done is closed once the loop has fully exited.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Err returns the error the loop terminated with, if any. Only meaningful
// after Done is closed.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Wait blocks until the loop exits or ctx is cancelled.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return h.Err()
	}
}

// Start begins polling: one immediate tick, then one tick per interval.
func Start(ctx context.Context, interval time.Duration, tick TickFunc) *Handle {
	h := &Handle{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go h.run(ctx, interval, tick)
	return h
}

func (h *Handle) run(ctx context.Context, interval time.Duration, tick TickFunc) {
	defer close(h.done)

	fire := func() (finished bool) {
		done, err := tick(ctx)
		if err != nil {
			h.mu.Lock()
			h.err = err
			h.mu.Unlock()
			return true
		}
		return done
	}

	if fire() {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			h.err = ctx.Err()
			h.mu.Unlock()
			return
		case <-h.stop:
			return
		case <-ticker.C:
			if fire() {
				return
			}
		}
	}
}
