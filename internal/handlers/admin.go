package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"clipstudy-backend/internal/cache"
)

// CacheAdminHandler exposes the cache's administrative operations. These
// are off the primary request path and guarded by the admin middleware.
type CacheAdminHandler struct {
	cache cache.Store
}

func NewCacheAdminHandler(store cache.Store) *CacheAdminHandler {
	return &CacheAdminHandler{cache: store}
}

func (h *CacheAdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"backend": h.cache.Backend(),
		"entries": h.cache.Len(r.Context()),
	})
}

func (h *CacheAdminHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.cache.Clear(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Cache cleared"})
}

func (h *CacheAdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	fingerprint := chi.URLParam(r, "fingerprint")
	if fingerprint == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Missing fingerprint", r))
		return
	}

	h.cache.Delete(r.Context(), fingerprint)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Entry removed"})
}
