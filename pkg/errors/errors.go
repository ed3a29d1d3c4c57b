package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error types carried in the "type" field of every JSON error body.
const (
	TypeInvalidRequest = "invalid_request_error"
	TypeCard           = "card_error"
	TypeAPI            = "api_error"
	TypeNotFound       = "not_found"
	TypeRateLimit      = "rate_limit_error"
	TypePermission     = "permission_error"
)

// Standard sentinel errors for common cases.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrCardDeclined   = errors.New("card error")
	ErrProviderReject = errors.New("provider rejected request")
	ErrNotFound       = errors.New("resource not found")
	ErrRateLimited    = errors.New("rate limited")
	ErrForbidden      = errors.New("forbidden")
	ErrUnavailable    = errors.New("provider unavailable")
	ErrInternal       = errors.New("internal error")
)

// UnexpectedMessage is the only message a caller ever sees for a 5xx.
const UnexpectedMessage = "An unexpected error occurred"

// AppError represents a structured application error with HTTP status mapping.
type AppError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// InvalidRequest creates a 400 error for a malformed client request.
func InvalidRequest(message string) *AppError {
	return &AppError{
		Type:    TypeInvalidRequest,
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidRequest,
	}
}

// CardError creates a 400 error for a card-level failure reported by the
// payment provider. The provider message is passed through unchanged.
func CardError(message string, cause error) *AppError {
	return &AppError{
		Type:    TypeCard,
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     errors.Join(ErrCardDeclined, cause),
	}
}

// ProviderInvalidRequest creates a 400 error for a request the payment
// provider refused to accept.
func ProviderInvalidRequest(message string, cause error) *AppError {
	return &AppError{
		Type:    TypeInvalidRequest,
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     errors.Join(ErrProviderReject, cause),
	}
}

// Unexpected creates an opaque 500 error. The cause is kept for logging only.
func Unexpected(cause error) *AppError {
	return &AppError{
		Type:    TypeAPI,
		Message: UnexpectedMessage,
		Status:  http.StatusInternalServerError,
		Err:     cause,
	}
}

// NotFound creates a 404 error.
func NotFound(message string) *AppError {
	return &AppError{
		Type:    TypeNotFound,
		Message: message,
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// RateLimited creates a 429 error.
func RateLimited() *AppError {
	return &AppError{
		Type:    TypeRateLimit,
		Message: "too many requests",
		Status:  http.StatusTooManyRequests,
		Err:     ErrRateLimited,
	}
}

// Forbidden creates a 403 error.
func Forbidden(message string) *AppError {
	return &AppError{
		Type:    TypePermission,
		Message: message,
		Status:  http.StatusForbidden,
		Err:     ErrForbidden,
	}
}

// UnsupportedMediaType creates a 415 error.
func UnsupportedMediaType() *AppError {
	return &AppError{
		Type:    TypeInvalidRequest,
		Message: "Content-Type must be application/json",
		Status:  http.StatusUnsupportedMediaType,
		Err:     ErrInvalidRequest,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrCardDeclined),
		errors.Is(err, ErrProviderReject):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
