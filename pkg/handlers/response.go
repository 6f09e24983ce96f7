package handlers

import (
	"encoding/json"
	"net/http"
)

// Every API endpoint answers with the same envelope: {"ok": true, "data": …}
// on success, {"ok": false, "error": …} on failure. Transport-level failures
// get a non-200 status; pipeline failures travel inside a 200 payload.

// OKResponse writes a success envelope and returns any encoding error.
func OKResponse(w http.ResponseWriter, data any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(map[string]any{
		"ok":   true,
		"data": data,
	})
}

// ErrorResponse writes a failure envelope and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]any{
		"ok":    false,
		"error": message,
	})
}
