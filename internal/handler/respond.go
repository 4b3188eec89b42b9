package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bookbuddy/bookbuddy-go/internal/service"
)

const maxBodyBytes = 1 << 20 // 1MB

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func errorResponse(msg string) map[string]string {
	return map[string]string{"error": msg}
}

// decodeJSON decodes a size-limited request body into dst and writes the
// failure response itself. It reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse("request body too large"))
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return false
	}
	return true
}

// writeServiceError maps a business-rule failure to a caller-facing status.
// Anything that is not a service.Error is internal and never leaks detail.
func writeServiceError(w http.ResponseWriter, err error) {
	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	switch svcErr.Kind {
	case service.KindValidation:
		writeJSON(w, http.StatusBadRequest, errorResponse(svcErr.Message))
	case service.KindAuth:
		writeJSON(w, http.StatusUnauthorized, errorResponse(svcErr.Message))
	case service.KindNotFound:
		writeJSON(w, http.StatusNotFound, errorResponse(svcErr.Message))
	case service.KindConflict:
		writeJSON(w, http.StatusConflict, errorResponse(svcErr.Message))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
	}
}
