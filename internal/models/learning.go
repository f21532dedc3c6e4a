package models

import "time"

// QuizQuestion is a single multiple-choice question. After normalization a
// question always has exactly 4 options and a correct label in A-D.
type QuizQuestion struct {
	Index       int      `json:"index"` // 1-based position in the quiz
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Correct     string   `json:"correct"` // "A" | "B" | "C" | "D"
	Explanation string   `json:"explanation"`
}

// LearningBundle is the AI-derived artifact set for one piece of content.
// Quiz length is always exactly 10 after generation.
type LearningBundle struct {
	Title     string         `json:"title"`
	Summary   string         `json:"summary"`
	KeyPoints []string       `json:"key_points"`
	Quiz      []QuizQuestion `json:"quiz"`
}

// ResultEnvelope wraps a LearningBundle with processing metadata. For
// video-sourced requests the video fields are populated.
type ResultEnvelope struct {
	LearningBundle

	VideoID         string `json:"video_id,omitempty"`
	VideoURL        string `json:"video_url,omitempty"`
	Channel         string `json:"channel,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`

	TranscriptChars int       `json:"transcript_chars"`
	ProcessingMS    int64     `json:"processing_ms"`
	GeneratedAt     time.Time `json:"generated_at"`
}
