package handler

import (
	"net/http"

	"github.com/mcoot/noughts/internal/api/apierr"
)

// Re-export from apierr for convenience
type APIError = apierr.APIError
type ErrorResponse = apierr.ErrorResponse

const (
	CodeInvalidRequest      = apierr.CodeInvalidRequest
	CodeNotFound            = apierr.CodeNotFound
	CodeSessionNotFound     = apierr.CodeSessionNotFound
	CodeParticipantNotFound = apierr.CodeParticipantNotFound
	CodeUnavailable         = apierr.CodeUnavailable
	CodeInternalError       = apierr.CodeInternalError
)

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NotFound is the router's handler for unknown paths
func NotFound(w http.ResponseWriter, _ *http.Request) {
	apierr.WriteError(w, apierr.NewNotFoundError())
}

// MethodNotAllowed is the router's handler for known paths with the wrong method
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	apierr.WriteError(w, apierr.NewMethodNotAllowedError())
}
