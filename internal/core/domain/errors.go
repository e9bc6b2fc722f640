package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
//
// Codes have the form PV-<FAMILY>-<NNNN>. The last four digits follow HTTP
// status semantics so the transport layer can map them without a lookup table.
type DomainError struct {
	Code    string // Error code (e.g., "PV-POST-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a DomainError carrying the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// User errors (USER).
var (
	// ErrUserNotFound indicates no account is registered for the email or id.
	ErrUserNotFound = NewDomainError("PV-USER-4040", "user not found")

	// ErrUserAlreadyExists indicates the email is already registered.
	ErrUserAlreadyExists = NewDomainError("PV-USER-4090", "user already exists")

	// ErrUserVersionConflict indicates a concurrent write to the same account.
	ErrUserVersionConflict = NewDomainError("PV-USER-4091", "user version conflict, please retry")
)

// Authentication errors (AUTH).
var (
	// ErrUnauthorized indicates the caller could not be authenticated.
	ErrUnauthorized = NewDomainError("PV-AUTH-4010", "unauthorized")

	// ErrInvalidCredentials indicates the password did not match.
	ErrInvalidCredentials = NewDomainError("PV-AUTH-4011", "invalid credentials")

	// ErrSessionExpired indicates the session token has passed its expiry.
	ErrSessionExpired = NewDomainError("PV-AUTH-4012", "session expired")
)

// Post errors (POST).
var (
	// ErrPostNotFound indicates the requested post does not exist.
	ErrPostNotFound = NewDomainError("PV-POST-4040", "post not found")

	// ErrPostConflict indicates the post id already exists.
	ErrPostConflict = NewDomainError("PV-POST-4090", "post id conflict")

	// ErrPostVersionConflict indicates an optimistic lock conflict on a post.
	ErrPostVersionConflict = NewDomainError("PV-POST-4091", "post version conflict, please retry")

	// ErrPostValidation indicates post data failed validation.
	ErrPostValidation = NewDomainError("PV-POST-4001", "post validation failed")
)

// System errors (SYS).
var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("PV-SYS-5000", "internal server error")

	// ErrStorageError indicates a storage layer error.
	ErrStorageError = NewDomainError("PV-SYS-5001", "storage error")

	// ErrServiceUnavailable indicates the service is temporarily unavailable.
	ErrServiceUnavailable = NewDomainError("PV-SYS-5030", "service unavailable")

	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = NewDomainError("PV-SYS-4000", "bad request")
)

// Argument errors (ARG).
var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("PV-ARG-1001", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("PV-ARG-1002", "missing required argument")
)
