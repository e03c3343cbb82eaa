package api

import (
	"errors"
	"fmt"
)

// Kind classifies an error as observed by the client.
type Kind string

const (
	KindNetwork    Kind = "network"    // transport failure, timeout, abort
	KindValidation Kind = "validation" // local precondition failed; no request was sent
	KindPermission Kind = "permission" // server rejected with 401/403
	KindProcessing Kind = "processing" // server returned a non-2xx or success:false
	KindUnknown    Kind = "unknown"
)

// Error is the typed error surfaced by the transport and the services built
// on top of it. Message is human-readable and safe to show to the user.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int // 0 when no HTTP response was received
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a typed error with a formatted message.
func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validationf builds a validation error. Validation errors are raised before
// any network call is made.
func Validationf(format string, args ...any) *Error {
	return NewError(KindValidation, format, args...)
}

// KindOf returns the Kind of err, or KindUnknown if err carries no *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// statusKind maps an HTTP status code to an error kind.
func statusKind(status int) Kind {
	switch status {
	case 401, 403:
		return KindPermission
	default:
		return KindProcessing
	}
}
