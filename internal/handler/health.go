package handler

import "net/http"

// WriteHealth reports liveness plus whether the caller presented a valid
// identity. The flag is informational; the endpoint never rejects anyone.
func WriteHealth(w http.ResponseWriter, authenticated bool) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"authenticated": authenticated,
	})
}
