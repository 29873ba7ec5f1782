// Package quizerr carries the error taxonomy of the quiz lifecycle. Every
// failure crossing a component boundary is tagged with a Kind so the API
// layer can map it to a status code without inspecting error strings.
package quizerr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// Validation: malformed input, caller's fault. Never retried.
	Validation Kind = iota
	// Generation: upstream LLM failure. Fatal for question generation,
	// recoverable for feedback.
	Generation
	// Persistence: result store unavailable. Fatal to the current
	// finalize attempt; the attempt is safe to retry.
	Persistence
	// Notification: email delivery failure. Logged, never surfaced.
	Notification
	// NotFound: unknown session or result id.
	NotFound
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Generation:
		return "generation"
	case Persistence:
		return "persistence"
	case Notification:
		return "notification"
	case NotFound:
		return "not_found"
	}
	return "unknown"
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a tagged error without a cause.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap tags an underlying error with a kind.
func Wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the kind from an error chain. Untagged errors report
// Persistence, the conservative default for unexpected infrastructure
// failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Persistence
}

// Is reports whether err carries the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
