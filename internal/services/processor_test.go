package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"clipstudy-backend/internal/cache"
	"clipstudy-backend/internal/models"
)

// ─── Test Doubles ───

type fakeYouTube struct {
	transcript      string
	err             error
	transcriptCalls int
}

func (f *fakeYouTube) GetTranscript(_ context.Context, _ string) (string, error) {
	f.transcriptCalls++
	return f.transcript, f.err
}

func (f *fakeYouTube) GetVideoMetadata(_ context.Context, _ string) (*VideoMetadata, error) {
	return &VideoMetadata{Title: "Fake Video", Channel: "Fake Channel", DurationSeconds: 120}, nil
}

type fakeGenerator struct {
	calls int
	err   error
}

func (f *fakeGenerator) ProcessTranscript(_ context.Context, _, _ string) (*models.LearningBundle, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.LearningBundle{
		Title:     "Generated Title",
		Summary:   "A generated summary.",
		KeyPoints: []string{"one", "two", "three", "four", "five", "six"},
		Quiz:      normalizeQuiz(nil),
	}, nil
}

func newTestProcessor(yt *fakeYouTube, gen *fakeGenerator) *Processor {
	store := cache.NewMemoryStore(time.Hour, time.Hour)
	return NewProcessor(store, yt, gen, nil)
}

// ─── Video ID Extraction ───

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"watch URL", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"short URL", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"bare ID", "dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"shorts URL", "https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"embed URL", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"watch URL with extra params", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ"},
		{"unrelated URL", "https://example.com/watch?v=nope", ""},
		{"non-YouTube host with 11-char v param", "https://vimeo.com/watch?v=dQw4w9WgXcQ", ""},
		{"non-YouTube host with embed path", "https://example.com/embed/dQw4w9WgXcQ", ""},
		{"empty string", "", ""},
		{"too-short token", "abc123", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractVideoID(tc.input); got != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, got)
			}
		})
	}
}

// ─── Text Fingerprint ───

func TestTextFingerprintStable(t *testing.T) {
	text := strings.Repeat("lorem ipsum ", 200)

	a := TextFingerprint(text)
	b := TextFingerprint(text)
	if a != b {
		t.Errorf("Expected stable fingerprint, got %q and %q", a, b)
	}
	if !strings.HasPrefix(a, "txt:") {
		t.Errorf("Expected txt: prefix, got %q", a)
	}
}

func TestTextFingerprintUsesPrefixOnly(t *testing.T) {
	base := strings.Repeat("a", 1000)

	a := TextFingerprint(base + "tail one")
	b := TextFingerprint(base + "a completely different tail")
	if a != b {
		t.Errorf("Expected identical fingerprints for identical first 1000 chars, got %q and %q", a, b)
	}

	c := TextFingerprint("b" + base[1:])
	if a == c {
		t.Error("Expected different fingerprints for different prefixes")
	}
}

// ─── Transcript Validation ───

func TestProcessTextLengthBounds(t *testing.T) {
	tests := []struct {
		name   string
		length int
		valid  bool
	}{
		{"99 chars rejected", 99, false},
		{"100 chars accepted", 100, true},
		{"50000 chars accepted", 50000, true},
		{"50001 chars rejected", 50001, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gen := &fakeGenerator{}
			p := newTestProcessor(&fakeYouTube{}, gen)

			_, _, err := p.ProcessText(context.Background(), strings.Repeat("x", tc.length), "transcript")

			if tc.valid && err != nil {
				t.Errorf("Expected %d chars to be accepted, got %v", tc.length, err)
			}
			if !tc.valid {
				if _, ok := err.(*ValidationError); !ok {
					t.Errorf("Expected ValidationError for %d chars, got %v", tc.length, err)
				}
				if gen.calls != 0 {
					t.Errorf("Expected no generation for invalid input, got %d calls", gen.calls)
				}
			}
		})
	}
}

// ─── Cache Behavior ───

func TestProcessVideoCacheHitSkipsGeneration(t *testing.T) {
	yt := &fakeYouTube{transcript: strings.Repeat("spoken words ", 50)}
	gen := &fakeGenerator{}
	p := newTestProcessor(yt, gen)
	ctx := context.Background()

	env1, cached1, err := p.ProcessVideo(ctx, "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("First request failed: %v", err)
	}
	if cached1 {
		t.Error("Expected cached=false on first request")
	}
	if gen.calls != 1 {
		t.Fatalf("Expected 1 generation call after miss, got %d", gen.calls)
	}

	env2, cached2, err := p.ProcessVideo(ctx, "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Second request failed: %v", err)
	}
	if !cached2 {
		t.Error("Expected cached=true on second request")
	}
	if gen.calls != 1 {
		t.Errorf("Expected cache hit to skip generation, got %d calls", gen.calls)
	}
	if yt.transcriptCalls != 1 {
		t.Errorf("Expected cache hit to skip transcript fetch, got %d calls", yt.transcriptCalls)
	}
	if env2 != env1 {
		t.Error("Expected the identical cached envelope on the second request")
	}
}

func TestProcessTextCacheHitSkipsGeneration(t *testing.T) {
	gen := &fakeGenerator{}
	p := newTestProcessor(&fakeYouTube{}, gen)
	ctx := context.Background()
	text := strings.Repeat("pasted transcript text ", 20)

	if _, cached, err := p.ProcessText(ctx, text, "transcript"); err != nil || cached {
		t.Fatalf("First request: expected miss without error, got cached=%v err=%v", cached, err)
	}
	if _, cached, err := p.ProcessText(ctx, text, "transcript"); err != nil || !cached {
		t.Fatalf("Second request: expected hit without error, got cached=%v err=%v", cached, err)
	}
	if gen.calls != 1 {
		t.Errorf("Expected exactly 1 generation call across both requests, got %d", gen.calls)
	}
}

func TestProcessVideoInvalidURL(t *testing.T) {
	gen := &fakeGenerator{}
	p := newTestProcessor(&fakeYouTube{}, gen)

	_, _, err := p.ProcessVideo(context.Background(), "https://example.com/not-youtube")
	if _, ok := err.(*ValidationError); !ok {
		t.Errorf("Expected ValidationError, got %v", err)
	}
	if gen.calls != 0 {
		t.Errorf("Expected no generation for invalid URL, got %d calls", gen.calls)
	}
}

func TestProcessVideoEmptyTranscript(t *testing.T) {
	yt := &fakeYouTube{transcript: "[Music] (applause)"}
	p := newTestProcessor(yt, &fakeGenerator{})

	_, _, err := p.ProcessVideo(context.Background(), "dQw4w9WgXcQ")
	if _, ok := err.(*NotFoundError); !ok {
		t.Errorf("Expected NotFoundError for empty cleaned transcript, got %v", err)
	}
}

func TestProcessVideoGenerationFailureNotCached(t *testing.T) {
	yt := &fakeYouTube{transcript: strings.Repeat("words ", 100)}
	gen := &fakeGenerator{err: &UnavailableError{Message: "down"}}
	p := newTestProcessor(yt, gen)
	ctx := context.Background()

	if _, _, err := p.ProcessVideo(ctx, "dQw4w9WgXcQ"); err == nil {
		t.Fatal("Expected failure to propagate")
	}

	// Recovered generator: the earlier failure must not have been cached.
	gen.err = nil
	_, cached, err := p.ProcessVideo(ctx, "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if cached {
		t.Error("Expected failed generation to leave the cache empty")
	}
}
