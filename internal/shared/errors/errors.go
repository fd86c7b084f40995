package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common error types
var (
	ErrNotFound                = errors.New("resource not found")
	ErrUnauthorized            = errors.New("unauthorized")
	ErrBadRequest              = errors.New("bad request")
	ErrInternal                = errors.New("internal error")
	ErrValidation              = errors.New("validation error")
	ErrConfiguration           = errors.New("configuration error")
	ErrDependencyUnavailable   = errors.New("dependency unavailable")
	ErrMalformedRecommendation = errors.New("malformed recommendation")
)

// AppError represents an application error with context
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	HTTPStatus int               `json:"-"`
	Details    map[string]string `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a not found error
func NotFound(resource string, id string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		Code:       "NOT_FOUND",
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]string{"resource": resource, "id": id},
	}
}

// Unauthorized creates an unauthorized error
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:        ErrUnauthorized,
		Message:    message,
		Code:       "UNAUTHORIZED",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// BadRequest creates a bad request error
func BadRequest(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Message:    message,
		Code:       "BAD_REQUEST",
		HTTPStatus: http.StatusBadRequest,
	}
}

// Validation creates a validation error with field details
func Validation(message string, details map[string]string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Message:    message,
		Code:       "VALIDATION_ERROR",
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// Configuration creates a fatal configuration error. These are raised at the
// call site during startup and never swallowed.
func Configuration(dependency, detail string) *AppError {
	return &AppError{
		Err:        ErrConfiguration,
		Message:    fmt.Sprintf("%s is misconfigured: %s", dependency, detail),
		Code:       "CONFIGURATION_ERROR",
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]string{"dependency": dependency},
	}
}

// DependencyUnavailable marks a network/timeout/not-found failure from an
// external validation source. Callers at the adapter boundary convert these
// into degraded-confidence results rather than propagating them.
func DependencyUnavailable(dependency string, err error) *AppError {
	return &AppError{
		Err:        fmt.Errorf("%w: %v", ErrDependencyUnavailable, err),
		Message:    fmt.Sprintf("%s unavailable", dependency),
		Code:       "DEPENDENCY_UNAVAILABLE",
		HTTPStatus: http.StatusServiceUnavailable,
		Details:    map[string]string{"dependency": dependency},
	}
}

// IsDependencyUnavailable reports whether err represents an unavailable
// external dependency.
func IsDependencyUnavailable(err error) bool {
	return errors.Is(err, ErrDependencyUnavailable)
}

// MalformedRecommendation marks an AI recommendation payload that failed to
// parse into the expected structure. The pipeline converts these into a
// zero-trust verdict instead of surfacing the error.
func MalformedRecommendation(detail string) *AppError {
	return &AppError{
		Err:        ErrMalformedRecommendation,
		Message:    fmt.Sprintf("recommendation could not be parsed: %s", detail),
		Code:       "MALFORMED_RECOMMENDATION",
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// IsMalformedRecommendation reports whether err represents an unparseable
// AI recommendation.
func IsMalformedRecommendation(err error) bool {
	return errors.Is(err, ErrMalformedRecommendation)
}

// Internal creates an internal error
func Internal(err error) *AppError {
	return &AppError{
		Err:        err,
		Message:    "internal server error",
		Code:       "INTERNAL_ERROR",
		HTTPStatus: http.StatusInternalServerError,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) *AppError {
	if appErr, ok := err.(*AppError); ok {
		appErr.Message = fmt.Sprintf("%s: %s", message, appErr.Message)
		return appErr
	}
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "INTERNAL_ERROR",
		HTTPStatus: http.StatusInternalServerError,
	}
}
