package services

// Typed errors returned by services. The handler boundary maps each kind
// to an HTTP status; services never pick statuses themselves.

type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

// RateLimitError signals an upstream provider quota/rate condition. The
// caller may retry later.
type RateLimitError struct{ Message string }

func (e *RateLimitError) Error() string { return e.Message }

// UnavailableError signals an unreachable or misbehaving upstream
// provider.
type UnavailableError struct{ Message string }

func (e *UnavailableError) Error() string { return e.Message }

// ConfigError signals service misconfiguration (missing credential,
// unusable model) rather than a transient fault.
type ConfigError struct{ Message string }

func (e *ConfigError) Error() string { return e.Message }
