package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"taskflow-backend/models"
	"taskflow-backend/utilities"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		utilities.LogError(err, "Failed to encode JSON response")
	}
}

// respondError maps the model error taxonomy onto HTTP responses.
// Validation failures carry the field list, not-found stays neutral,
// and everything else is logged and surfaced as a generic 500.
func respondError(w http.ResponseWriter, err error, notFoundMessage, logContext string) {
	if ve, ok := models.IsValidation(err); ok {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"errors": ve.Fields})
		return
	}
	if errors.Is(err, models.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": notFoundMessage})
		return
	}
	utilities.LogError(err, logContext)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Server error"})
}
