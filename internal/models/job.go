package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Job struct {
	ID           uuid.UUID       `json:"id"`
	Type         string          `json:"type"` // "video-processing" | "transcript-processing"
	PayloadJSON  json.RawMessage `json:"payload"`
	Fingerprint  string          `json:"fingerprint"`
	Status       string          `json:"status"` // "pending" | "processing" | "completed" | "failed"
	RetryCount   int             `json:"retry_count"`
	ErrorMessage *string         `json:"error_message"`
	CreatedAt    time.Time       `json:"created_at"`
	CompletedAt  *time.Time      `json:"completed_at"`
}

type SubmitJobRequest struct {
	VideoURL   string `json:"video_url,omitempty"`
	Transcript string `json:"transcript,omitempty"`
}

// WSMessage is the envelope for messages pushed over the progress socket.
type WSMessage struct {
	Type    string      `json:"type"` // "status_update" | "completed" | "error"
	Payload interface{} `json:"payload"`
}

type StatusUpdate struct {
	JobID                     uuid.UUID `json:"job_id"`
	Step                      int       `json:"step"`
	StepName                  string    `json:"step_name"`
	EstimatedSecondsRemaining int       `json:"estimated_seconds_remaining,omitempty"`
}

type CompletedEvent struct {
	JobID       uuid.UUID `json:"job_id"`
	Fingerprint string    `json:"fingerprint"`
	Cached      bool      `json:"cached"`
}

type ErrorEvent struct {
	JobID        uuid.UUID `json:"job_id"`
	ErrorCode    string    `json:"error_code"`
	ErrorMessage string    `json:"error_message"`
}
