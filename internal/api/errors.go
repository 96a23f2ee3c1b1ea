package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorResponse is the body of every error reply. Error carries the
// human-readable message so clients can show it directly.
type ErrorResponse struct {
	Error string    `json:"error"`
	Code  ErrorCode `json:"code"`
}

// ErrorCode represents error codes used in API responses
type ErrorCode string

const (
	// ErrorCodeInvalidRequest represents invalid request parameters
	ErrorCodeInvalidRequest ErrorCode = "INVALID_REQUEST"

	// ErrorCodeNotFound represents a not found error
	ErrorCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrorCodeMethodNotAllowed represents a wrong HTTP method
	ErrorCodeMethodNotAllowed ErrorCode = "METHOD_NOT_ALLOWED"

	// ErrorCodeConflict represents a request clashing with existing state
	ErrorCodeConflict ErrorCode = "CONFLICT"

	// ErrorCodeRequestTooLarge represents a request body over the limit
	ErrorCodeRequestTooLarge ErrorCode = "REQUEST_TOO_LARGE"

	// ErrorCodeUpstream represents a failure of the model or agent runtime
	ErrorCodeUpstream ErrorCode = "UPSTREAM_ERROR"

	// ErrorCodeUnavailable represents a server that cannot serve yet
	ErrorCodeUnavailable ErrorCode = "UNAVAILABLE"

	// ErrorCodeInternalError represents an internal server error
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// APIError represents an API error with status code and message
type APIError struct {
	Code       ErrorCode
	StatusCode int
	Message    string
}

// NewAPIError creates a new API error
func NewAPIError(code ErrorCode, statusCode int, message string) *APIError {
	return &APIError{
		Code:       code,
		StatusCode: statusCode,
		Message:    message,
	}
}

// Error returns the error message
func (e *APIError) Error() string {
	return e.Message
}

// Response returns the JSON body for this error.
func (e *APIError) Response() ErrorResponse {
	return ErrorResponse{Error: e.Message, Code: e.Code}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string, args ...interface{}) *APIError {
	return NewAPIError(ErrorCodeInvalidRequest, http.StatusBadRequest, fmt.Sprintf(message, args...))
}

// NewNotFoundError creates a not found error
func NewNotFoundError(message string, args ...interface{}) *APIError {
	return NewAPIError(ErrorCodeNotFound, http.StatusNotFound, fmt.Sprintf(message, args...))
}

// NewMethodNotAllowedError creates a method not allowed error
func NewMethodNotAllowedError(message string, args ...interface{}) *APIError {
	return NewAPIError(ErrorCodeMethodNotAllowed, http.StatusMethodNotAllowed, fmt.Sprintf(message, args...))
}

// NewConflictError creates a conflict error
func NewConflictError(message string, args ...interface{}) *APIError {
	return NewAPIError(ErrorCodeConflict, http.StatusConflict, fmt.Sprintf(message, args...))
}

// NewRequestTooLargeError creates a request too large error
func NewRequestTooLargeError(message string, args ...interface{}) *APIError {
	return NewAPIError(ErrorCodeRequestTooLarge, http.StatusRequestEntityTooLarge, fmt.Sprintf(message, args...))
}

// NewUpstreamError creates a bad gateway error for agent runtime failures
func NewUpstreamError(message string, args ...interface{}) *APIError {
	return NewAPIError(ErrorCodeUpstream, http.StatusBadGateway, fmt.Sprintf(message, args...))
}

// NewUnavailableError creates a 503 error
func NewUnavailableError(message string, args ...interface{}) *APIError {
	return NewAPIError(ErrorCodeUnavailable, http.StatusServiceUnavailable, fmt.Sprintf(message, args...))
}

// NewInternalServerError creates an internal server error
func NewInternalServerError(message string, args ...interface{}) *APIError {
	return NewAPIError(ErrorCodeInternalError, http.StatusInternalServerError, fmt.Sprintf(message, args...))
}

// AsAPIError unwraps err to an *APIError, or wraps it as an internal error.
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return NewInternalServerError("%s", err.Error())
}
