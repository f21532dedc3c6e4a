package handlers

import (
	"net/http"
	"time"

	"clipstudy-backend/internal/models"
)

type HealthHandler struct {
	env          string
	geminiKeySet bool
	cacheBackend string
	persistence  bool
	asyncJobs    bool
}

func NewHealthHandler(env string, geminiKeySet bool, cacheBackend string, persistence, asyncJobs bool) *HealthHandler {
	return &HealthHandler{
		env:          env,
		geminiKeySet: geminiKeySet,
		cacheBackend: cacheBackend,
		persistence:  persistence,
		asyncJobs:    asyncJobs,
	}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:       "ok",
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Env:          h.env,
		GeminiKeySet: h.geminiKeySet,
		CacheBackend: h.cacheBackend,
		Persistence:  h.persistence,
		AsyncJobs:    h.asyncJobs,
	})
}
