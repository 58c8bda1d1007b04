// Package domainerrors provides coded errors for the domain and service
// layers. Codes classify failures so callers can branch on intent
// (validation vs. invariant vs. infrastructure) without string matching.
//
// Stores return sentinel errors (pkg/platform/sentinel); services translate
// them into coded errors at the boundary. Use New for fresh errors, Wrap to
// attach a code and context to an underlying cause, and HasCode to test.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// CodeInternal marks unexpected infrastructure failures.
	CodeInternal Code = "internal"
	// CodeValidation marks rejected user input (bad date text, bad number).
	CodeValidation Code = "validation"
	// CodeInvalidInput marks malformed identifiers or arguments.
	CodeInvalidInput Code = "invalid_input"
	// CodeInvalidConfig marks missing or malformed required configuration.
	CodeInvalidConfig Code = "invalid_config"
	// CodeInvariantViolation marks broken programming invariants. These
	// indicate bugs, not bad input, and should fail loudly.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeNotFound marks a missing entity surfaced to the caller as an error.
	CodeNotFound Code = "not_found"
	// CodeConflict marks uniqueness or concurrent-modification conflicts.
	CodeConflict Code = "conflict"
	// CodeTimeout marks context cancellation or deadline expiry.
	CodeTimeout Code = "timeout"
)

// Error carries a code, a human-readable message, and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New constructs a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. A nil err
// returns nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.Err
		if err == nil {
			return false
		}
	}
	return false
}

// Is is shorthand for HasCode, kept for readability at call sites.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code in the chain, or CodeInternal when the
// error carries no code.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
