package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yourorg/drukstay/internal/domain"
)

// errorResponse is the JSON error contract: {"message": "..."}
type errorResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Message: message})
}

// writeError translates domain sentinels into the HTTP error contract.
// Anything unrecognized becomes a generic 500 so store internals never
// reach the client.
func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeMessage(w, http.StatusBadRequest, validationMessage(err))
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeMessage(w, http.StatusBadRequest, "Invalid email or password")
	case errors.Is(err, domain.ErrUnauthorized):
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, domain.ErrInvalidToken):
		writeMessage(w, http.StatusUnauthorized, "Invalid token")
	case errors.Is(err, domain.ErrForbidden):
		writeMessage(w, http.StatusForbidden, "Access denied")
	case errors.Is(err, domain.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "Not found")
	case errors.Is(err, domain.ErrEmailTaken):
		writeMessage(w, http.StatusConflict, "Email already exists")
	case errors.Is(err, domain.ErrUpload):
		writeMessage(w, http.StatusInternalServerError, "Error uploading images")
	default:
		log.Error("request failed", slog.String("error", err.Error()))
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

// validationMessage strips the sentinel prefix, keeping the client-facing part
func validationMessage(err error) string {
	msg := err.Error()
	if idx := strings.Index(msg, ": "); idx != -1 {
		return msg[idx+2:]
	}
	return msg
}
