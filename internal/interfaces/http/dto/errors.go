package dto

import (
	"errors"
	"net/http"

	"github.com/reimburse/backend/internal/domain/reimbursement"
	"github.com/reimburse/backend/internal/domain/shared"
)

// Domain error codes surfaced unchanged to clients
const (
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeAlreadyExists       = "ALREADY_EXISTS"
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeInvalidArgument     = "INVALID_ARGUMENT"
	ErrCodeUnauthenticated     = "UNAUTHENTICATED"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	ErrCodeInvalidState        = "INVALID_STATE"
	ErrCodeRenderUnavailable   = "RENDER_UNAVAILABLE"
)

// Transport error codes
const (
	ErrCodeInternal         = "INTERNAL_ERROR"
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeRequestTooLarge  = "REQUEST_TOO_LARGE"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeDuplicateRequest = "DUPLICATE_REQUEST"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	// Input errors -> 400 Bad Request
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidArgument: http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthenticated: http.StatusUnauthorized,
	ErrCodeUnauthorized:    http.StatusUnauthorized,
	ErrCodeForbidden:       http.StatusForbidden,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeDuplicateRequest:    http.StatusConflict,

	// Lifecycle violations -> 422 Unprocessable Entity
	ErrCodeInvalidState: http.StatusUnprocessableEntity,

	ErrCodeRequestTooLarge:   http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:       http.StatusTooManyRequests,
	ErrCodeRenderUnavailable: http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// FromError classifies err into an HTTP status and an error body.
// Errors that are neither domain nor validation errors are reported as internal
// without leaking their message.
func FromError(err error, requestID string) (int, *ErrorInfo) {
	if v, ok := reimbursement.AsValidationErrors(err); ok {
		return http.StatusBadRequest, &ErrorInfo{
			Code:      v.Code(),
			Message:   "Request validation failed",
			RequestID: requestID,
			Details:   []string(v),
		}
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return GetHTTPStatus(domainErr.Code), &ErrorInfo{
			Code:      domainErr.Code,
			Message:   domainErr.Message,
			RequestID: requestID,
		}
	}

	return http.StatusInternalServerError, &ErrorInfo{
		Code:      ErrCodeInternal,
		Message:   "An unexpected error occurred",
		RequestID: requestID,
	}
}
