package errors

import (
	"context"
	"errors"
	"net/http"
)

// statusCarrier is implemented by errors that describe an HTTP response from the remote API.
type statusCarrier interface {
	HTTPStatus() int
}

// messageCarrier is implemented by errors that carry a server supplied, user facing message.
type messageCarrier interface {
	UserMessage() string
}

// MapUpstreamError maps remote API and transport errors to AppError instances.
// It handles:
// - context timeouts/cancellations → Timeout/Canceled
// - 400/422 → Validation
// - 401 → Unauthenticated
// - 403 → Forbidden
// - 404 → NotFound
// - 409 → Conflict
// - other statuses and transport failures → Upstream
//
// The server message, when present, becomes the AppError message.
func MapUpstreamError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{
			Code:    ErrCodeTimeout,
			Message: "Request timed out. Please try again.",
			Cause:   err,
		}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{
			Code:    ErrCodeCanceled,
			Message: "Request was canceled.",
			Cause:   err,
		}
	}

	var sc statusCarrier
	if !errors.As(err, &sc) {
		return &AppError{
			Code:    ErrCodeUpstream,
			Message: "The trading platform is unreachable. Please try again.",
			Cause:   err,
		}
	}

	code, fallback := codeForStatus(sc.HTTPStatus())
	return &AppError{
		Code:    code,
		Message: userMessage(err, fallback),
		Cause:   err,
	}
}

func codeForStatus(status int) (ErrorCode, string) {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrCodeValidation, "Invalid data. Please check your input."
	case http.StatusUnauthorized:
		return ErrCodeUnauthenticated, "Your session has expired. Please sign in again."
	case http.StatusForbidden:
		return ErrCodeForbidden, "You do not have permission to perform this action."
	case http.StatusNotFound:
		return ErrCodeNotFound, "Resource not found"
	case http.StatusConflict:
		return ErrCodeConflict, "The record was changed by someone else. Reload and try again."
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return ErrCodeTimeout, "Request timed out. Please try again."
	default:
		return ErrCodeUpstream, "The trading platform returned an error. Please try again."
	}
}

func userMessage(err error, fallback string) string {
	var mc messageCarrier
	if errors.As(err, &mc) {
		if msg := mc.UserMessage(); msg != "" {
			return msg
		}
	}
	return fallback
}

// HTTPStatus returns the console response status for an error code.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeUnauthenticated:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeUpstream:
		return http.StatusBadGateway
	case ErrCodeCanceled:
		// nginx's client-closed-request; nobody reads it.
		return 499
	default:
		return http.StatusInternalServerError
	}
}
