package dto

import (
	"net/http"

	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/shared"
)

// Codes produced by the HTTP layer itself
const (
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeInvalidJSON  = "INVALID_JSON"
	ErrCodeUnauthorized = "UNAUTHORIZED"
)

// kindStatus maps error kinds to HTTP status codes
var kindStatus = map[*shared.DomainError]int{
	shared.ErrValidation:       http.StatusBadRequest,
	shared.ErrInvalidNamespace: http.StatusBadRequest,
	shared.ErrNotFound:         http.StatusNotFound,
	shared.ErrAlreadyExists:    http.StatusConflict,
	shared.ErrTenantInactive:   http.StatusForbidden,
	shared.ErrStorage:          http.StatusInternalServerError,
}

// StatusOf returns the HTTP status for err's kind. Errors without a kind are
// internal errors.
func StatusOf(err error) int {
	if status, ok := kindStatus[shared.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ErrorResponseOf builds the error envelope for err. Errors without a kind
// never leak their text.
func ErrorResponseOf(err error, requestID string) Response {
	if shared.KindOf(err) == nil {
		return NewErrorResponseWithRequestID(ErrCodeInternal, "An unexpected error occurred", requestID)
	}
	return NewErrorResponseWithRequestID(shared.CodeOf(err), shared.MessageOf(err), requestID)
}
