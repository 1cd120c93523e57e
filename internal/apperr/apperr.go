// Package apperr classifies failures so the capture loop and the CLI can
// decide what to do with them.
package apperr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is the class of a failure.
type Kind int

const (
	Unknown Kind = iota
	Network
	Decode
	Config
	Persistence
)

func (k Kind) String() string {
	switch k {
	case Network:
		return "network"
	case Decode:
		return "decode"
	case Config:
		return "config"
	case Persistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// Error attaches a Kind to an underlying error.
type Error struct {
	Kind Kind
	Err  error
}

// Error prefixes the cause with the kind, e.g. "network error: ...".
func (e *Error) Error() string {
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

// Unwrap supports errors.Is and errors.As.
func (e *Error) Unwrap() error { return e.Err }

// Cause supports github.com/pkg/errors.Cause.
func (e *Error) Cause() error { return e.Err }

// New wraps err with kind and message. A nil err yields nil.
func New(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: errors.Wrap(err, msg)}
}

// Newf is like New but builds the error from a format string.
func Newf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Err: errors.Errorf(format, args...)}
}

// KindOf returns the Kind of the outermost classified error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// ExitCode maps err to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch KindOf(err) {
	case Config:
		return 2
	case Network:
		return 3
	case Decode:
		return 4
	case Persistence:
		return 5
	default:
		return 1
	}
}
