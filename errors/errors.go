package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Constructors ---

// Configuration creates a new AppError for an invalid configuration.
func Configuration(reason string) *AppError {
	return &AppError{
		Code: ErrCodeConfiguration, Message: fmt.Sprintf("Invalid configuration: %s", reason),
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// MissingField creates a new AppError for a missing required field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("Missing required field: %s", field),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"field": field},
	}
}

// ConnectionClosed creates a new AppError for an operation attempted on a closed stream.
func ConnectionClosed(side string) *AppError {
	return &AppError{
		Code: ErrCodeConnectionClosed, Message: "Connection closed.",
		HTTPStatus: http.StatusGone, Retryable: false,
		Details: map[string]any{"side": side},
	}
}

// Transport creates a new AppError for a failure reported by the streaming transport.
func Transport(reason string) *AppError {
	return &AppError{
		Code: ErrCodeTransport, Message: fmt.Sprintf("Transport error: %s", reason),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
	}
}

// Unavailable creates a new AppError for a request turned away for lack of capacity.
func Unavailable(reason string) *AppError {
	return &AppError{
		Code: ErrCodeUnavailable, Message: fmt.Sprintf("Service unavailable: %s", reason),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
	}
}

// RateLimited creates a new AppError for a request rejected by a rate limiter.
func RateLimited(name string) *AppError {
	return &AppError{
		Code: ErrCodeRateLimited, Message: "Rate limit exceeded.",
		HTTPStatus: http.StatusTooManyRequests, Retryable: true,
		Details: map[string]any{"limiter": name},
	}
}

// Internal creates a new AppError for an internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

// --- Inspection ---

// HasCode reports whether err is, or wraps, an *AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool { return HasCode(err, ErrCodeConfiguration) }

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	return HasCode(err, ErrCodeInvalidInput) || HasCode(err, ErrCodeMissingField)
}

// IsConnectionClosed reports whether err signals a closed producer or consumer.
func IsConnectionClosed(err error) bool { return HasCode(err, ErrCodeConnectionClosed) }

// IsTransport reports whether err was raised by the streaming transport.
func IsTransport(err error) bool { return HasCode(err, ErrCodeTransport) }

// IsUnavailable reports whether err signals exhausted capacity.
func IsUnavailable(err error) bool { return HasCode(err, ErrCodeUnavailable) }

// IsRateLimited reports whether err was raised by a rate limiter.
func IsRateLimited(err error) bool { return HasCode(err, ErrCodeRateLimited) }
