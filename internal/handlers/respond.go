package handlers

import (
	"encoding/json"
	"net/http"

	"clipstudy-backend/internal/models"
	"clipstudy-backend/internal/services"
)

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Success: false,
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

// handleServiceError maps typed service errors to HTTP statuses. Raw error
// detail is exposed outside production only; stack traces never leave the
// process.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error, production bool) {
	var status int
	var code, message string

	switch e := err.(type) {
	case *services.ValidationError:
		status, code, message = http.StatusBadRequest, "VALIDATION_ERROR", e.Message
	case *services.NotFoundError:
		status, code, message = http.StatusNotFound, "NOT_FOUND", e.Message
	case *services.RateLimitError:
		status, code, message = http.StatusTooManyRequests, "PROVIDER_QUOTA", e.Message
	case *services.UnavailableError:
		status, code, message = http.StatusServiceUnavailable, "PROVIDER_UNAVAILABLE", e.Message
	case *services.ConfigError:
		status, code, message = http.StatusInternalServerError, "MISCONFIGURED", e.Message
	default:
		status, code, message = http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"
	}

	resp := errorResp(code, message, r)
	if !production {
		resp.Error.Detail = err.Error()
	}
	writeJSON(w, status, resp)
}
