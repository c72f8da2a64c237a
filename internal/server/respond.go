package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/auth"
	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/lifecycle"
	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/service"
	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/storage"
)

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// decodeJSON parses the request body into v, answering 400 on failure.
// Returns false when the request was already answered.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return false
	}
	return true
}

func errorBody(message string) map[string]string {
	return map[string]string{"error": message}
}

// writeError maps domain errors onto HTTP statuses. Validation, permission,
// not-found and conflict failures carry their message through; anything else
// is a storage failure answered with a generic notice so backend internals
// stay out of responses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, lifecycle.ErrPermissionDenied),
		errors.Is(err, service.ErrNotAdmin):
		writeJSON(w, http.StatusForbidden, errorBody(err.Error()))
	case errors.Is(err, lifecycle.ErrConflict),
		errors.Is(err, service.ErrAlreadyMember),
		errors.Is(err, auth.ErrEmailExists):
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken):
		writeJSON(w, http.StatusUnauthorized, errorBody(err.Error()))
	case lifecycle.IsValidation(err),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrGroupFull),
		errors.Is(err, service.ErrLastAdmin),
		errors.Is(err, auth.ErrWeakPassword):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	default:
		slog.Error("Request failed with storage error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("something went wrong, please try again"))
	}
}
