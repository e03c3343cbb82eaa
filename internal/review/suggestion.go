// Package review tracks proposed document edits (style changes and review
// issues) and their accept/reject state against a server session.
package review

import (
	"fmt"
	"sync"
)

// Status is the lifecycle state of one suggestion. Accepted and rejected
// are terminal: no transition back to pending exists, and repeating the
// same action on a terminal suggestion is a no-op.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Action is a user decision on a suggestion.
type Action string

const (
	ActionAccept Action = "accept"
	ActionReject Action = "reject"
)

// target returns the terminal status the action leads to.
func (a Action) target() (Status, error) {
	switch a {
	case ActionAccept:
		return StatusAccepted, nil
	case ActionReject:
		return StatusRejected, nil
	default:
		return "", fmt.Errorf("unknown action: %s", a)
	}
}

// Suggestion is one proposed edit scoped to a session.
type Suggestion struct {
	ID            string `json:"id"`
	OriginalText  string `json:"original_text"`
	SuggestedText string `json:"suggested_text"`
	Reason        string `json:"reason,omitempty"`
	Status        Status `json:"status"`
}

// Set is the local mirror of a session's suggestions.
type Set struct {
	mu    sync.Mutex
	order []string
	items map[string]*Suggestion
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{items: make(map[string]*Suggestion)}
}

// Replace swaps the whole set for the server's latest list. Suggestions
// arriving without a status default to pending.
func (s *Set) Replace(items []Suggestion) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = s.order[:0]
	s.items = make(map[string]*Suggestion, len(items))
	for i := range items {
		item := items[i]
		if item.Status == "" {
			item.Status = StatusPending
		}
		s.order = append(s.order, item.ID)
		s.items[item.ID] = &item
	}
}

// Apply moves one suggestion to the action's terminal status. Repeating
// the same action is an idempotent no-op (changed=false); a conflicting
// terminal status is an error.
func (s *Set) Apply(id string, action Action) (changed bool, err error) {
	target, err := action.target()
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return false, fmt.Errorf("unknown suggestion: %s", id)
	}

	switch item.Status {
	case StatusPending:
		item.Status = target
		return true, nil
	case target:
		return false, nil
	default:
		return false, fmt.Errorf("suggestion %s already %s", id, item.Status)
	}
}

// Items returns the suggestions in server order.
func (s *Set) Items() []Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Suggestion, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.items[id])
	}
	return out
}

// PendingCount returns how many suggestions are still undecided.
func (s *Set) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, item := range s.items {
		if item.Status == StatusPending {
			n++
		}
	}
	return n
}
