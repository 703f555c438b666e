// Package errors defines the console's error taxonomy. Remote API and
// transport failures are mapped onto it once, so handlers only ever switch on
// an ErrorCode.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeConflict indicates the upstream rejected a change as conflicting with current state.
	ErrCodeConflict ErrorCode = "conflict"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeUnauthenticated indicates missing or no longer valid credentials.
	ErrCodeUnauthenticated ErrorCode = "unauthenticated"
	// ErrCodeForbidden indicates the current role may not perform the operation.
	ErrCodeForbidden ErrorCode = "forbidden"
	// ErrCodeUpstream indicates the remote API failed or returned an unexpected response.
	ErrCodeUpstream ErrorCode = "upstream"
	ErrCodeInternal ErrorCode = "internal"
	ErrCodeTimeout  ErrorCode = "timeout"
	ErrCodeCanceled ErrorCode = "canceled"
)

// AppError is an error with a code, a message safe to show an operator, and
// an optional cause. Field names the form input at fault, if any.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Field   string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates an AppError without a cause.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap attaches code and message to err. A nil err stays nil.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// NotFound creates a NotFound error.
func NotFound(message string) *AppError { return New(ErrCodeNotFound, message) }

// Conflict creates a Conflict error.
func Conflict(message string) *AppError { return New(ErrCodeConflict, message) }

// Validation creates a Validation error that is not tied to a field.
func Validation(message string) *AppError { return New(ErrCodeValidation, message) }

// Unauthenticated creates an Unauthenticated error.
func Unauthenticated(message string) *AppError { return New(ErrCodeUnauthenticated, message) }

// Forbidden creates a Forbidden error.
func Forbidden(message string) *AppError { return New(ErrCodeForbidden, message) }

// Upstream creates an Upstream error.
func Upstream(message string) *AppError { return New(ErrCodeUpstream, message) }

// Internal creates an Internal error.
func Internal(message string) *AppError { return New(ErrCodeInternal, message) }

// ValidationField creates a Validation error for one form field.
func ValidationField(field, message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message, Field: field}
}

// HasCode reports whether err wraps an AppError with code.
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsUnauthenticated reports whether the session behind err is gone.
func IsUnauthenticated(err error) bool {
	return HasCode(err, ErrCodeUnauthenticated)
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
