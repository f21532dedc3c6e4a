package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"clipstudy-backend/internal/cache"
	"clipstudy-backend/internal/models"
	"clipstudy-backend/internal/services"
)

type jobStore interface {
	Create(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
}

// JobHandler exposes the async processing path: submitted work is queued
// on a Redis list and executed by the worker pool; clients poll the job or
// follow progress over the websocket.
type JobHandler struct {
	jobRepo    jobStore
	redis      *redis.Client
	cache      cache.Store
	production bool
}

func NewJobHandler(jobRepo jobStore, redisClient *redis.Client, store cache.Store, production bool) *JobHandler {
	return &JobHandler{
		jobRepo:    jobRepo,
		redis:      redisClient,
		cache:      store,
		production: production,
	}
}

// Submit handles POST /api/v1/jobs.
func (h *JobHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	hasURL := strings.TrimSpace(req.VideoURL) != ""
	hasText := strings.TrimSpace(req.Transcript) != ""
	if hasURL == hasText {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Provide exactly one of video_url or transcript", r))
		return
	}

	jobType := "video-processing"
	fingerprint := ""
	if hasURL {
		videoID := services.ExtractVideoID(req.VideoURL)
		if videoID == "" {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Not a recognizable YouTube URL or video ID", r))
			return
		}
		fingerprint = videoID
	} else {
		jobType = "transcript-processing"
		fingerprint = services.TextFingerprint(req.Transcript)
	}

	payload, _ := json.Marshal(req)
	job := &models.Job{
		ID:          uuid.New(),
		Type:        jobType,
		PayloadJSON: payload,
		Fingerprint: fingerprint,
		Status:      "pending",
		CreatedAt:   time.Now().UTC(),
	}

	if err := h.jobRepo.Create(r.Context(), job); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create job", r))
		return
	}

	jobBytes, _ := json.Marshal(job)
	if err := h.redis.LPush(r.Context(), "queue:"+jobType, string(jobBytes)).Err(); err != nil {
		log.Printf("failed to enqueue %s job %s: %v", jobType, job.ID, err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to enqueue job", r))
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"success":     true,
		"job_id":      job.ID,
		"fingerprint": job.Fingerprint,
	})
}

// Get handles GET /api/v1/jobs/{id}. Completed jobs include the cached
// envelope when it is still live.
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid job ID", r))
		return
	}

	job, err := h.jobRepo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Job not found", r))
		return
	}

	resp := map[string]interface{}{
		"success": true,
		"job":     job,
	}
	if job.Status == "completed" && job.Fingerprint != "" {
		if env, ok := h.cache.Get(r.Context(), job.Fingerprint); ok {
			resp["data"] = env
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
