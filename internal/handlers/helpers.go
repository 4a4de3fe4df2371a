package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/flowsint/flowsint/internal/interfaces"
)

// RequireMethod validates that the HTTP request uses the specified method.
// Returns true if the method matches, false otherwise (and writes error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteDetailError writes the engine's standard error payload
func WriteDetailError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]string{"detail": message})
}

// WriteServiceError maps an engine error to the right HTTP status:
// 404 for missing resources, 400 for validation problems, 500 otherwise.
func WriteServiceError(w http.ResponseWriter, err error) error {
	switch {
	case errors.Is(err, interfaces.ErrNotFound):
		return WriteDetailError(w, http.StatusNotFound, err.Error())
	case interfaces.IsValidation(err):
		return WriteDetailError(w, http.StatusBadRequest, err.Error())
	default:
		return WriteDetailError(w, http.StatusInternalServerError, err.Error())
	}
}

// DecodeJSON decodes a request body, rejecting unknown garbage early
func DecodeJSON(r *http.Request, out interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}
