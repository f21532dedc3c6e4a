// Package cache holds the process-wide result cache mapping content
// fingerprints to previously computed result envelopes. Entries carry a
// fixed TTL from insertion and are never mutated in place; an expired
// entry behaves as a miss even before the sweep reclaims it.
package cache

import (
	"context"

	"clipstudy-backend/internal/models"
)

// Store is implemented by the memory and Redis backends. Implementations
// must be safe for concurrent use.
type Store interface {
	// Get returns the live entry for the fingerprint, or ok=false when
	// absent or expired.
	Get(ctx context.Context, fingerprint string) (*models.ResultEnvelope, bool)

	// Set inserts or overwrites the entry and resets its TTL window.
	Set(ctx context.Context, fingerprint string, envelope *models.ResultEnvelope) bool

	// Delete removes a single entry. Removing an absent entry is not an
	// error.
	Delete(ctx context.Context, fingerprint string)

	// Clear removes every entry.
	Clear(ctx context.Context)

	// Len reports the number of stored entries, including expired ones
	// the sweep has not reclaimed yet.
	Len(ctx context.Context) int

	// Backend names the implementation for health reporting.
	Backend() string

	// Close releases backend resources.
	Close()
}
