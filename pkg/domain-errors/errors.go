// Package domainerrors provides coded errors for the compliance core.
//
// Every user-visible failure carries a Code so callers can branch on the
// failure kind without string matching. Codes survive wrapping: HasCode and
// CodeOf walk the error chain via errors.As.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain failure.
type Code string

const (
	// CodeInvalidInput rejects malformed identifiers or payload fields.
	CodeInvalidInput Code = "invalid_input"
	// CodeBadRequest rejects structurally invalid requests.
	CodeBadRequest Code = "bad_request"
	// CodeValidation rejects requests that parse but violate field rules.
	CodeValidation Code = "validation"
	// CodeNotFound reports a missing scholar, cohort, specialty or record.
	CodeNotFound Code = "not_found"
	// CodeConflict reports a uniqueness or concurrent-update conflict.
	CodeConflict Code = "conflict"
	// CodeInvariantViolation reports a broken model invariant.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeUnauthorized reports a missing or invalid credential.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden reports an actor that fails the authorization scope check.
	CodeForbidden Code = "forbidden"

	// CodeAlreadyVerified reports a verification attempt on a record that has
	// already left the pending state.
	CodeAlreadyVerified Code = "already_verified"
	// CodeInvalidTransition reports a status transition the state machine
	// does not permit (for example approving into pending).
	CodeInvalidTransition Code = "invalid_transition"
	// CodeCrossSpecialtyCopy reports a catalog copy whose source and target
	// cohorts belong to different specialties.
	CodeCrossSpecialtyCopy Code = "cross_specialty_copy"
	// CodeInvalidDateRange reports a cohort whose end date precedes its start.
	CodeInvalidDateRange Code = "invalid_date_range"

	// CodeInternal reports an infrastructure failure; details stay server-side.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error. Construct via New, Newf or Wrap.
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

// New builds a coded error with a static message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for e := err; e != nil; {
		if errors.As(e, &de) {
			if de.Code == code {
				return true
			}
			e = de.Unwrap()
			continue
		}
		return false
	}
	return false
}

// CodeOf returns the code of the outermost coded error in the chain, or
// CodeInternal when the error carries no code.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
