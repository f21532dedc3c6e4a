package models

type ProcessVideoRequest struct {
	VideoURL string `json:"video_url"`
}

type ProcessTranscriptRequest struct {
	Transcript string `json:"transcript"`
}

type ProcessResponse struct {
	Success bool            `json:"success"`
	Data    *ResultEnvelope `json:"data"`
	Cached  bool            `json:"cached"`
}

type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Detail    string `json:"detail,omitempty"` // populated outside production only
	RequestID string `json:"request_id,omitempty"`
}

type ErrorResponse struct {
	Success bool     `json:"success"`
	Error   APIError `json:"error"`
}

type HealthResponse struct {
	Status       string `json:"status"`
	Timestamp    string `json:"timestamp"`
	Env          string `json:"env"`
	GeminiKeySet bool   `json:"gemini_key_set"`
	CacheBackend string `json:"cache_backend"`
	Persistence  bool   `json:"persistence"`
	AsyncJobs    bool   `json:"async_jobs"`
}
