package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"clipstudy-backend/internal/models"
)

// MemoryStore is the default backend: an in-process expiring map. Entries
// are lost on restart, which is accepted; there is no size bound, which is
// a documented scaling limit rather than a defect.
type MemoryStore struct {
	c *gocache.Cache
}

// NewMemoryStore builds a store with the given per-entry TTL and sweep
// interval. The sweep only reclaims memory; go-cache already treats
// expired-but-unswept entries as misses on Get.
func NewMemoryStore(ttl, sweepInterval time.Duration) *MemoryStore {
	return &MemoryStore{c: gocache.New(ttl, sweepInterval)}
}

func (s *MemoryStore) Get(_ context.Context, fingerprint string) (*models.ResultEnvelope, bool) {
	v, ok := s.c.Get(fingerprint)
	if !ok {
		return nil, false
	}
	env, ok := v.(*models.ResultEnvelope)
	return env, ok
}

func (s *MemoryStore) Set(_ context.Context, fingerprint string, envelope *models.ResultEnvelope) bool {
	s.c.Set(fingerprint, envelope, gocache.DefaultExpiration)
	return true
}

func (s *MemoryStore) Delete(_ context.Context, fingerprint string) {
	s.c.Delete(fingerprint)
}

func (s *MemoryStore) Clear(_ context.Context) {
	s.c.Flush()
}

func (s *MemoryStore) Len(_ context.Context) int {
	return s.c.ItemCount()
}

func (s *MemoryStore) Backend() string { return "memory" }

func (s *MemoryStore) Close() {}
