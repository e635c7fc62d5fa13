package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error for transport mapping and caller policy.
// Codes are terminal outcomes: the registry never retries internally, so a
// code tells the caller exactly who must resolve the condition.
type Code string

const (
	// CodeInvalidInput marks input rejected at a trust boundary (parsers).
	CodeInvalidInput Code = "invalid_input"
	// CodeBadRequest marks a malformed or incomplete request body.
	CodeBadRequest Code = "bad_request"
	// CodeUnauthorized marks a caller without the capability a mutating
	// operation requires. Never retried automatically.
	CodeUnauthorized Code = "unauthorized"
	// CodeDuplicateFingerprint marks a mint that collides with an existing
	// active record for the same fingerprint. The caller must retire the
	// conflicting record before retrying.
	CodeDuplicateFingerprint Code = "duplicate_fingerprint"
	// CodeNotFound marks a lookup or fetch with no matching live record.
	// Distinct from a false validation result, which is a normal outcome.
	CodeNotFound Code = "not_found"
	// CodeInvalidState marks an operation against a record in the wrong
	// lifecycle state, e.g. deactivating an already retired record.
	CodeInvalidState Code = "invalid_state"
	// CodeTimeout marks a cancelled or deadline-exceeded operation.
	CodeTimeout Code = "timeout"
	// CodeInternal marks an unexpected failure; details stay server-side.
	CodeInternal Code = "internal_error"
)

// Error is the domain error type. Construct via New or Wrap at the layer that
// knows the domain meaning; stores return sentinel facts instead.
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

// New builds a domain error with a code and human-readable message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf builds a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error, preserving the
// chain for errors.Is/As.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is a readability alias for HasCode, matching call sites that phrase the
// check as a predicate on the error.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf extracts the code from err, defaulting to CodeInternal so transport
// layers never leak unclassified failures.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the human-readable message from err, empty when the error
// is not a domain error.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}

// ToHTTPStatus maps a domain code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeDuplicateFingerprint, CodeInvalidState:
		return http.StatusConflict
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
