package api

import (
	"encoding/json"
	"net/http"
)

// Error represents an error response body.
type Error struct {
	Error string `json:"error"`
}

// Response messages shared with device firmware; the wording is fixed.
const (
	msgNotRegistered  = "ESP32 not registered"
	msgInvalidPayload = "invalid payload"
	msgSendFailed     = "Failed to send message"
	msgInternal       = "internal server error"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Error{Error: message})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, message)
}
