package cache

import (
	"context"
	"testing"
	"time"

	"clipstudy-backend/internal/models"
)

func testEnvelope(title string) *models.ResultEnvelope {
	return &models.ResultEnvelope{
		LearningBundle: models.LearningBundle{
			Title:     title,
			Summary:   "A summary.",
			KeyPoints: []string{"point one", "point two"},
		},
		TranscriptChars: 1234,
		ProcessingMS:    250,
		GeneratedAt:     time.Now(),
	}
}

func TestMemoryStoreSetThenGet(t *testing.T) {
	store := NewMemoryStore(time.Hour, time.Hour)
	ctx := context.Background()

	env := testEnvelope("Set then get")
	if ok := store.Set(ctx, "abc123", env); !ok {
		t.Fatal("Expected Set to succeed")
	}

	got, ok := store.Get(ctx, "abc123")
	if !ok {
		t.Fatal("Expected a hit immediately after Set")
	}
	if got != env {
		t.Errorf("Expected the identical envelope back, got %+v", got)
	}
}

func TestMemoryStoreMissForUnknownKey(t *testing.T) {
	store := NewMemoryStore(time.Hour, time.Hour)

	if _, ok := store.Get(context.Background(), "never-set"); ok {
		t.Error("Expected a miss for an unknown fingerprint")
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	// Sweep interval far longer than TTL: logical expiry must still win.
	store := NewMemoryStore(20*time.Millisecond, time.Hour)
	ctx := context.Background()

	store.Set(ctx, "abc123", testEnvelope("Expiring"))
	time.Sleep(50 * time.Millisecond)

	if _, ok := store.Get(ctx, "abc123"); ok {
		t.Error("Expected a miss after TTL elapsed, even before sweep")
	}
}

func TestMemoryStoreSetResetsTTL(t *testing.T) {
	store := NewMemoryStore(60*time.Millisecond, time.Hour)
	ctx := context.Background()

	store.Set(ctx, "abc123", testEnvelope("First"))
	time.Sleep(40 * time.Millisecond)
	store.Set(ctx, "abc123", testEnvelope("Second"))
	time.Sleep(40 * time.Millisecond)

	// 80ms after the first write but only 40ms after the overwrite.
	got, ok := store.Get(ctx, "abc123")
	if !ok {
		t.Fatal("Expected the overwritten entry to still be live")
	}
	if got.Title != "Second" {
		t.Errorf("Expected the overwritten envelope, got title %q", got.Title)
	}
}

func TestMemoryStoreDeleteAndClear(t *testing.T) {
	store := NewMemoryStore(time.Hour, time.Hour)
	ctx := context.Background()

	store.Set(ctx, "a", testEnvelope("A"))
	store.Set(ctx, "b", testEnvelope("B"))

	store.Delete(ctx, "a")
	if _, ok := store.Get(ctx, "a"); ok {
		t.Error("Expected deleted entry to be absent")
	}
	if _, ok := store.Get(ctx, "b"); !ok {
		t.Error("Expected unrelated entry to survive Delete")
	}

	store.Clear(ctx)
	if got := store.Len(ctx); got != 0 {
		t.Errorf("Expected empty store after Clear, got %d entries", got)
	}
}
