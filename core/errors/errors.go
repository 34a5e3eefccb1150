// Package errors defines the structured failures returned by the dispatch
// core. Expected domain failures (an illegal action, a busy track, a
// predecessor that is not ready yet) are values of type *Error carrying a Kind
// so that callers can branch on them and transports can map them to status
// codes.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind is a machine-readable failure category.
type Kind string

const (
	KindUnknown             Kind = "UNKNOWN"
	KindInvalidTransition   Kind = "INVALID_TRANSITION"
	KindCapacityUnavailable Kind = "CAPACITY_UNAVAILABLE"
	KindSequencingViolation Kind = "SEQUENCING_VIOLATION"
	KindUnknownReference    Kind = "UNKNOWN_REFERENCE"
	KindPersistenceFailure  Kind = "PERSISTENCE_FAILURE"
)

// HTTPStatus maps the kind to the status code used by the HTTP API.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindInvalidTransition:
		return http.StatusUnprocessableEntity
	case KindCapacityUnavailable, KindSequencingViolation:
		return http.StatusConflict
	case KindUnknownReference:
		return http.StatusNotFound
	case KindPersistenceFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is the domain error type with structured metadata.
type Error struct {
	Kind     Kind              // Machine-readable category
	Message  string            // Human-readable reason
	Metadata map[string]string // Additional context (ids, states)
	Cause    error             // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// New creates an error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind around cause.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// With returns a copy of e with the key/value pair added to its metadata.
func (e *Error) With(key, value string) *Error {
	cp := *e
	cp.Metadata = make(map[string]string, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		cp.Metadata[k] = v
	}
	cp.Metadata[key] = value
	return &cp
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Sentinels usable with errors.Is.
var (
	ErrInvalidTransition   = &Error{Kind: KindInvalidTransition}
	ErrCapacityUnavailable = &Error{Kind: KindCapacityUnavailable}
	ErrSequencingViolation = &Error{Kind: KindSequencingViolation}
	ErrUnknownReference    = &Error{Kind: KindUnknownReference}
	ErrPersistenceFailure  = &Error{Kind: KindPersistenceFailure}
)
