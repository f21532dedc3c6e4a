package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"clipstudy-backend/internal/models"
)

const redisKeyPrefix = "result:"

// RedisStore stores envelopes as JSON under a prefixed key with a TTL that
// Redis enforces itself; no sweep goroutine is needed. Backend errors are
// logged and reported as misses so the pipeline falls back to regeneration
// instead of failing the request.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, fingerprint string) (*models.ResultEnvelope, bool) {
	data, err := s.client.Get(ctx, redisKeyPrefix+fingerprint).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("cache: redis get %s failed: %v", fingerprint, err)
		return nil, false
	}

	var env models.ResultEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Printf("cache: corrupt entry for %s, dropping: %v", fingerprint, err)
		s.client.Del(ctx, redisKeyPrefix+fingerprint)
		return nil, false
	}
	return &env, true
}

func (s *RedisStore) Set(ctx context.Context, fingerprint string, envelope *models.ResultEnvelope) bool {
	data, err := json.Marshal(envelope)
	if err != nil {
		log.Printf("cache: marshal envelope for %s failed: %v", fingerprint, err)
		return false
	}
	if err := s.client.Set(ctx, redisKeyPrefix+fingerprint, data, s.ttl).Err(); err != nil {
		log.Printf("cache: redis set %s failed: %v", fingerprint, err)
		return false
	}
	return true
}

func (s *RedisStore) Delete(ctx context.Context, fingerprint string) {
	s.client.Del(ctx, redisKeyPrefix+fingerprint)
}

func (s *RedisStore) Clear(ctx context.Context) {
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		s.client.Del(ctx, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Printf("cache: redis clear scan failed: %v", err)
	}
}

func (s *RedisStore) Len(ctx context.Context) int {
	count := 0
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		count++
	}
	return count
}

func (s *RedisStore) Backend() string { return "redis" }

func (s *RedisStore) Close() {}
