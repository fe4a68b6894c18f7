// Package wmerr defines the error taxonomy shared by all workspace
// operations.
//
// Every application-level failure carries a Kind so that callers can
// decide abort-vs-continue explicitly:
//
//   - KindConfig: bad selectors, unknown aliases, malformed versions.
//     Reported before any side effect where possible.
//   - KindExec: a build command or git command exited non-zero. Fatal to
//     the current operation; completed side effects are left as-is.
//   - KindIntegrity: a manifested artifact is missing or its hash does
//     not match. Never fatal to a verification scan, but the overall run
//     reports failure.
//
// Errors can be inspected with errors.Is against the kind sentinels:
//
//	if errors.Is(err, wmerr.Config) {
//	    // reject before running anything
//	}
package wmerr

import (
	"errors"
	"fmt"
)

// Kind classifies an application-level error.
type Kind int

const (
	// KindUnknown is the zero kind, used for errors that did not
	// originate in this package.
	KindUnknown Kind = iota

	// KindConfig marks configuration errors.
	KindConfig

	// KindExec marks execution errors from subprocesses.
	KindExec

	// KindIntegrity marks artifact integrity errors.
	KindIntegrity
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "configuration"
	case KindExec:
		return "execution"
	case KindIntegrity:
		return "integrity"
	default:
		return "unknown"
	}
}

// Kind sentinels for use with errors.Is.
var (
	Config    = &Error{kind: KindConfig, msg: "configuration error"}
	Exec      = &Error{kind: KindExec, msg: "execution error"}
	Integrity = &Error{kind: KindIntegrity, msg: "integrity error"}
)

// Error is an application error with a kind and an optional wrapped cause.
type Error struct {
	kind Kind
	msg  string
	err  error
}

// E builds a new error of the given kind.
func E(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap builds a new error of the given kind around a cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...), err: err}
}

// Error returns the message, including the cause when present.
func (e *Error) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// Kind returns the error's kind.
func (e *Error) Kind() Kind {
	if e == nil {
		return KindUnknown
	}
	return e.kind
}

// Is matches the kind sentinels, so errors.Is(err, wmerr.Exec) is true
// for any execution error regardless of message.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.kind == t.kind
	}
	return false
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindUnknown if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind()
	}
	return KindUnknown
}
