package models

import (
	"time"

	"github.com/google/uuid"
)

// HistoryEntry records one completed generation when persistence is
// configured. The cache remains the source of truth for results; history
// is an audit trail only.
type HistoryEntry struct {
	ID              uuid.UUID `json:"id"`
	Fingerprint     string    `json:"fingerprint"`
	SourceType      string    `json:"source_type"` // "youtube" | "transcript" | "file"
	VideoID         *string   `json:"video_id"`
	Title           string    `json:"title"`
	TranscriptChars int       `json:"transcript_chars"`
	ProcessingMS    int64     `json:"processing_ms"`
	CreatedAt       time.Time `json:"created_at"`
}
