package types

import "fmt"

// Error type labels surfaced in API responses and matched by the global
// error handler.
const (
	ErrTypeValidation      = "validation"
	ErrTypeNotFound        = "not_found"
	ErrTypeUnauthenticated = "unauthenticated"
	ErrTypeForbidden       = "forbidden"
	ErrTypeUpstream        = "upstream"
	ErrTypeUpstreamTimeout = "upstream.timeout"
	ErrTypeStorage         = "storage"
)

type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("%d: %s [type: %s]", e.Code, e.Message, e.Type)
}

// NewValidationError reports malformed or conflicting input (409).
func NewValidationError(format string, args ...interface{}) *CustomError {
	return &CustomError{
		Code:    409,
		Message: fmt.Sprintf(format, args...),
		Type:    ErrTypeValidation,
	}
}

// NewNotFoundError reports a missing entity or unroutable path (404).
func NewNotFoundError(format string, args ...interface{}) *CustomError {
	return &CustomError{
		Code:    404,
		Message: fmt.Sprintf(format, args...),
		Type:    ErrTypeNotFound,
	}
}

// NewUnauthenticatedError reports a request without a usable session (401).
func NewUnauthenticatedError(message string) *CustomError {
	return &CustomError{
		Code:    401,
		Message: message,
		Type:    ErrTypeUnauthenticated,
	}
}

// NewForbiddenError reports an authenticated principal without the required
// role or ownership (403).
func NewForbiddenError(message string) *CustomError {
	return &CustomError{
		Code:    403,
		Message: message,
		Type:    ErrTypeForbidden,
	}
}

// NewUpstreamError reports a failed backend call (502).
func NewUpstreamError(format string, args ...interface{}) *CustomError {
	return &CustomError{
		Code:    502,
		Message: fmt.Sprintf(format, args...),
		Type:    ErrTypeUpstream,
	}
}

// NewUpstreamTimeoutError reports a backend call that exceeded the
// configured deadline (504).
func NewUpstreamTimeoutError(format string, args ...interface{}) *CustomError {
	return &CustomError{
		Code:    504,
		Message: fmt.Sprintf(format, args...),
		Type:    ErrTypeUpstreamTimeout,
	}
}

// NewStorageError reports a transaction or storage failure (500). The
// originating transaction has already been rolled back.
func NewStorageError(err error) *CustomError {
	return &CustomError{
		Code:    500,
		Message: err.Error(),
		Type:    ErrTypeStorage,
	}
}
