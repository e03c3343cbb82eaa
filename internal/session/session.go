// Package session tracks user-initiated document operations and the
// results the server has returned for them so far.
package session

import (
	"fmt"
	"math/rand"
	"time"
)

// Kind identifies the operation family a session belongs to.
type Kind string

const (
	KindFormat Kind = "format"
	KindStyle  Kind = "style"
	KindFill   Kind = "fill"
	KindReview Kind = "review"
	KindBatch  Kind = "batch"
)

// FileRef is a file attached to a session. Content is read once at attach
// time and cached so the bytes are never re-read from disk.
type FileRef struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MIMEType string `json:"mime_type"`
	Content  []byte `json:"-"`
}

// Session is the client-side record of one operation: its current stage,
// attached files, and the accumulated server results. Sessions are kept for
// the lifetime of the process as a simple audit trail.
type Session struct {
	ID          string         `json:"id"`
	Kind        Kind           `json:"kind"`
	Stage       string         `json:"stage,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	LastUpdated time.Time      `json:"last_updated"`
	Files       []FileRef      `json:"files,omitempty"`
	Results     map[string]any `json:"results,omitempty"`
}

// newSessionID builds an id from a timestamp plus a random suffix. This is
// collision-safe within one process lifetime, which is all that is needed;
// it is not cryptographically unique.
func newSessionID() string {
	return fmt.Sprintf("session_%d_%06x", time.Now().UnixMilli(), rand.Uint32()&0xffffff)
}
