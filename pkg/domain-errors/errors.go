// Package errors provides coded domain errors shared by every cadastre
// component. Codes classify failures for callers (and the HTTP layer)
// without leaking implementation detail; nothing in the core is fatal.
package errors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// CodeConflict signals two revisions of one entity would hold
	// overlapping valid time with open recording intervals.
	CodeConflict Code = "conflict"
	// CodeNotFound signals no revision exists at the requested coordinate.
	CodeNotFound Code = "not_found"
	// CodeIntegrityViolation signals a restrict-policy reference blocked a
	// retirement.
	CodeIntegrityViolation Code = "integrity_violation"
	// CodeValidation signals an attribute document failed validation; the
	// error value carries the accumulated per-field issues.
	CodeValidation Code = "validation"
	// CodeBadRequest signals malformed caller input.
	CodeBadRequest Code = "bad_request"
	// CodeInvariantViolation signals a broken model invariant.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeInternal signals an unexpected collaborator failure.
	CodeInternal Code = "internal"
)

// Error is a coded domain error. Construct with New or Wrap.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a coded error with no cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. A nil err yields
// nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		if err == nil {
			break
		}
	}
	return false
}

// CodeOf returns the outermost domain code, or CodeInternal for foreign errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
