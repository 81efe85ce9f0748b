package handler

// Response helpers shared by all handlers: one function to send JSON, one
// to translate a domain error into the right status code and a consistent
// error body:
//
//	{"error": "not_found", "message": "contact not found with id abc123"}

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/contacts-api/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"` // Human-readable description
}

// writeJSON sends a JSON response with the given status code.
// Headers and status must go out before the first body byte, hence the
// ordering here.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers already went out — logging is all that's left.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status code and sends it.
//
// This is the single place where the apperror taxonomy becomes HTTP:
// validation → 400, unauthorized → 401, not found → 404, conflict → 409,
// anything else → a generic 500. Raw internal error details never reach
// the client.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError

	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
