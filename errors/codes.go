package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Setup errors
const (
	// ErrCodeConfiguration indicates an invalid producer or consumer configuration,
	// such as an EOS marker without data.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates a chunk or payload that cannot be emitted or decoded.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Stream lifecycle errors
const (
	// ErrCodeConnectionClosed indicates the producer or consumer has been closed.
	ErrCodeConnectionClosed ErrorCode = "CONNECTION_CLOSED"
	// ErrCodeTransport indicates the underlying streaming transport failed.
	ErrCodeTransport ErrorCode = "TRANSPORT_ERROR"
)

// Capacity errors
const (
	// ErrCodeUnavailable indicates every stream slot is taken.
	ErrCodeUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeRateLimited indicates the caller exceeded its emission rate.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected internal failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Transport failures are worth a reconnect by the caller; nothing here retries internally.
var retryableCodes = map[ErrorCode]bool{
	ErrCodeTransport:   true,
	ErrCodeUnavailable: true,
	ErrCodeRateLimited: true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
