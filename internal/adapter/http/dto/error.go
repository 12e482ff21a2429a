package dto

import (
	"net/http"

	"github.com/iho/bankledger/internal/domain"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind"`
	Message string `json:"message,omitempty"`
}

var kindStatus = map[domain.ErrorKind]int{
	domain.KindNotFound:            http.StatusNotFound,
	domain.KindConflict:            http.StatusConflict,
	domain.KindInvalidAmount:       http.StatusBadRequest,
	domain.KindSelfTransfer:        http.StatusBadRequest,
	domain.KindInvalidInput:        http.StatusBadRequest,
	domain.KindInsufficientBalance: http.StatusUnprocessableEntity,
	domain.KindAccessDenied:        http.StatusForbidden,
	domain.KindUnauthorized:        http.StatusForbidden,
	domain.KindUnauthenticated:     http.StatusUnauthorized,
	domain.KindUnavailable:         http.StatusServiceUnavailable,
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind domain.ErrorKind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ErrorFromDomain builds the response body and status for err. Internal
// errors do not expose their message.
func ErrorFromDomain(err error) (int, *ErrorResponse) {
	kind := domain.KindOf(err)
	status := StatusFor(kind)

	resp := &ErrorResponse{
		Error:   http.StatusText(status),
		Kind:    string(kind),
		Message: err.Error(),
	}
	if kind == domain.KindInternal {
		resp.Message = "internal error"
	}

	return status, resp
}

// InvalidInput builds a 400 response for malformed requests.
func InvalidInput(message string) *ErrorResponse {
	return &ErrorResponse{
		Error:   http.StatusText(http.StatusBadRequest),
		Kind:    string(domain.KindInvalidInput),
		Message: message,
	}
}
