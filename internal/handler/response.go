// Package handler provides HTTP handlers for the Gatekeeper API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/prn-tf/gatekeeper/internal/service"
)

// messageResponse is the envelope for informational responses.
type messageResponse struct {
	Message string `json:"message"`
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeMessage writes a message envelope with the given status.
func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

// statusForError maps service errors onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidRole):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrAdminRequired),
		errors.Is(err, service.ErrPermissionDenied),
		errors.Is(err, service.ErrRoleChangeDenied),
		errors.Is(err, service.ErrTierProtected):
		return http.StatusForbidden
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrUserAlreadyExists),
		errors.Is(err, service.ErrAlreadyLoggedIn):
		return http.StatusConflict
	case errors.Is(err, service.ErrSelfRename),
		errors.Is(err, service.ErrSelfDelete):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps a service error onto a JSON error response.
// Internal errors are logged and masked.
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Msg("request failed")
		writeMessage(w, status, service.ErrInternalError.Error())
		return
	}
	writeMessage(w, status, err.Error())
}
