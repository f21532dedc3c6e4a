package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"clipstudy-backend/internal/models"
)

const maxUploadBytes = 20 << 20 // 20MB document cap

type pipeline interface {
	ProcessVideo(ctx context.Context, videoURL string) (*models.ResultEnvelope, bool, error)
	ProcessText(ctx context.Context, transcript, source string) (*models.ResultEnvelope, bool, error)
}

type textExtractor interface {
	ExtractText(filename string, data []byte) (string, error)
}

type ProcessHandler struct {
	pipeline    pipeline
	fileExtract textExtractor
	production  bool
}

func NewProcessHandler(p pipeline, fileExtract textExtractor, production bool) *ProcessHandler {
	return &ProcessHandler{
		pipeline:    p,
		fileExtract: fileExtract,
		production:  production,
	}
}

// ProcessYouTube handles POST /api/v1/process.
func (h *ProcessHandler) ProcessYouTube(w http.ResponseWriter, r *http.Request) {
	var req models.ProcessVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if strings.TrimSpace(req.VideoURL) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "video_url is required", r))
		return
	}

	env, cached, err := h.pipeline.ProcessVideo(r.Context(), req.VideoURL)
	if err != nil {
		handleServiceError(w, r, err, h.production)
		return
	}

	writeJSON(w, http.StatusOK, models.ProcessResponse{Success: true, Data: env, Cached: cached})
}

// ProcessTranscript handles POST /api/v1/process-transcript.
func (h *ProcessHandler) ProcessTranscript(w http.ResponseWriter, r *http.Request) {
	var req models.ProcessTranscriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if strings.TrimSpace(req.Transcript) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "transcript is required", r))
		return
	}

	env, cached, err := h.pipeline.ProcessText(r.Context(), req.Transcript, "transcript")
	if err != nil {
		handleServiceError(w, r, err, h.production)
		return
	}

	writeJSON(w, http.StatusOK, models.ProcessResponse{Success: true, Data: env, Cached: cached})
}

// ProcessFile handles POST /api/v1/process-file: multipart upload of a
// .txt/.pdf/.docx document fed through the transcript path.
func (h *ProcessHandler) ProcessFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid multipart upload", r))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Missing file field", r))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Failed to read uploaded file", r))
		return
	}
	if len(data) > maxUploadBytes {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Uploaded file exceeds 20MB limit", r))
		return
	}

	text, err := h.fileExtract.ExtractText(header.Filename, data)
	if err != nil {
		handleServiceError(w, r, err, h.production)
		return
	}

	env, cached, err := h.pipeline.ProcessText(r.Context(), text, "file")
	if err != nil {
		handleServiceError(w, r, err, h.production)
		return
	}

	writeJSON(w, http.StatusOK, models.ProcessResponse{Success: true, Data: env, Cached: cached})
}
