package apperrors

import (
	"errors"
	"net/http"
)

// Failure taxonomy shared by the socket and REST facades. Handlers match
// with errors.Is and never branch on error strings.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidState = errors.New("invalid state")
	ErrBadRequest   = errors.New("bad request")
	ErrStorage      = errors.New("storage unavailable")
)

// StatusCode maps a service error onto an HTTP status for the REST facade.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
