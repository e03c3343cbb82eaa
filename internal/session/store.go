package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/officemind/docagent/internal/api"
	"github.com/officemind/docagent/internal/validate"
)

// ErrNotFound is returned when a session id is unknown to the store.
var ErrNotFound = errors.New("session not found")

// Store is an in-memory session store. Sessions are retained in creation
// order for the process lifetime; nothing is persisted across runs.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	order    []string
	maxSize  int64
}

// NewStore creates an empty store using the default upload size ceiling.
func NewStore() *Store {
	return NewStoreWithMax(validate.DefaultMaxSize)
}

// NewStoreWithMax creates an empty store with a custom size ceiling for
// attached files.
func NewStoreWithMax(maxSize int64) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		maxSize:  maxSize,
	}
}

// Create starts a new session of the given kind and returns it.
func (st *Store) Create(kind Kind) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := time.Now()
	s := &Session{
		ID:          newSessionID(),
		Kind:        kind,
		CreatedAt:   now,
		LastUpdated: now,
		Results:     make(map[string]any),
	}
	st.sessions[s.ID] = s
	st.order = append(st.order, s.ID)
	return s
}

// Update merges patch into the session's result map (last-write-wins per
// key, existing keys are never removed) and optionally advances the stage.
// LastUpdated is strictly monotonic even under clock skew.
func (st *Store) Update(id, stage string, patch map[string]any) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if stage != "" {
		s.Stage = stage
	}
	for k, v := range patch {
		s.Results[k] = v
	}

	now := time.Now()
	if !now.After(s.LastUpdated) {
		now = s.LastUpdated.Add(time.Nanosecond)
	}
	s.LastUpdated = now
	return nil
}

// AddFile validates the file metadata and attaches it to the session.
// Validation failures surface locally as a validation error without any
// network round trip.
func (st *Store) AddFile(id string, ref FileRef, kind validate.FileKind) error {
	res := validate.ValidateWithMax(validate.File{
		Name:     ref.Name,
		Size:     ref.Size,
		MIMEType: ref.MIMEType,
	}, kind, st.maxSize)
	if !res.IsValid {
		return api.Validationf("%s", strings.Join(res.Errors, "; "))
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.Files = append(s.Files, ref)

	now := time.Now()
	if !now.After(s.LastUpdated) {
		now = s.LastUpdated.Add(time.Nanosecond)
	}
	s.LastUpdated = now
	return nil
}

// Get returns the session with the given id.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// History returns all sessions in creation order.
func (st *Store) History() []*Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	out := make([]*Session, 0, len(st.order))
	for _, id := range st.order {
		out = append(out, st.sessions[id])
	}
	return out
}
