// Package apperr implements the error taxonomy from spec §7 as Go error
// values rather than exceptional control flow.
package apperr

import "errors"

// Kind distinguishes the error taxonomy the orchestrator and pipeline use
// to decide whether a failure is recoverable (becomes a tool-result turn,
// a per-file skip) or fatal (escapes the request).
type Kind string

const (
	BadRequest            Kind = "BadRequest"
	NotFound              Kind = "NotFound"
	ToolFailure           Kind = "ToolFailure"
	ModelFailure          Kind = "ModelFailure"
	MaxIterationsExceeded Kind = "MaxIterationsExceeded"
	Cancelled             Kind = "Cancelled"
	SyncPartial           Kind = "SyncPartial"
)

// Error wraps a Kind and message, supporting errors.Is/As via Unwrap.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target shares this error's Kind, supporting
// errors.Is(err, apperr.New(apperr.NotFound, "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs an Error of the given Kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an Error of the given Kind wrapping err.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the Kind of err if it (or something it wraps) is an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
