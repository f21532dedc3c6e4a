package handlers

import (
	"context"
	"net/http"
	"strconv"

	"clipstudy-backend/internal/models"
)

type historyLister interface {
	ListRecent(ctx context.Context, limit int) ([]*models.HistoryEntry, error)
}

type HistoryHandler struct {
	repo       historyLister
	production bool
}

func NewHistoryHandler(repo historyLister, production bool) *HistoryHandler {
	return &HistoryHandler{repo: repo, production: production}
}

// List handles GET /api/v1/history.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	entries, err := h.repo.ListRecent(r.Context(), limit)
	if err != nil {
		handleServiceError(w, r, err, h.production)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"history": entries,
		"limit":   limit,
	})
}
