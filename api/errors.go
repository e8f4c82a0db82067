package api

import (
	"fmt"
	"net/http"
)

// Stable error codes produced by the client itself. Server-declared codes
// (VALIDATION_ERROR, NOT_FOUND, ...) are passed through verbatim from the
// error envelope.
const (
	CodeTimeout        = "TIMEOUT"
	CodeSessionExpired = "SESSION_EXPIRED"
	CodeRequestFailed  = "REQUEST_FAILED"
	CodeUnknown        = "UNKNOWN_ERROR"
)

// Error is the typed error returned by all client operations. Callers should
// branch on the classification predicates or on Code, not on Message.
type Error struct {
	Message   string
	Code      string
	Status    int
	Details   map[string][]string
	RequestID string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("api error %s (status %d): %s", e.Code, e.Status, e.Message)
}

// IsAuthError reports whether the error is an authentication failure.
func (e *Error) IsAuthError() bool {
	return e.Status == http.StatusUnauthorized || e.Code == "UNAUTHORIZED" || e.Code == CodeSessionExpired
}

// IsForbidden reports whether the error is an authorization failure.
func (e *Error) IsForbidden() bool {
	return e.Status == http.StatusForbidden || e.Code == "FORBIDDEN"
}

// IsNotFound reports whether the requested resource does not exist.
func (e *Error) IsNotFound() bool {
	return e.Status == http.StatusNotFound || e.Code == "NOT_FOUND"
}

// IsValidationError reports whether the request was rejected for invalid
// input. Field-level messages are in Details.
func (e *Error) IsValidationError() bool {
	return e.Status == http.StatusBadRequest || e.Code == "VALIDATION_ERROR"
}

// IsServerError reports whether the backend failed.
func (e *Error) IsServerError() bool {
	return e.Status >= http.StatusInternalServerError
}

// IsTimeout reports whether the request was aborted by its own deadline.
func (e *Error) IsTimeout() bool {
	return e.Code == CodeTimeout
}

func sessionExpiredError() *Error {
	return &Error{
		Message: "session expired",
		Code:    CodeSessionExpired,
		Status:  http.StatusUnauthorized,
	}
}

func timeoutError() *Error {
	return &Error{
		Message: "request timeout",
		Code:    CodeTimeout,
		Status:  http.StatusRequestTimeout,
	}
}
