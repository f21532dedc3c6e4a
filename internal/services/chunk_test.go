package services

import (
	"strings"
	"testing"
)

func TestChunkText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxChars int
		expected []string
	}{
		{"empty input", "", 10, nil},
		{"fits in one chunk", "hello world", 100, []string{"hello world"}},
		{"splits on whitespace", "alpha beta gamma", 11, []string{"alpha beta", "gamma"}},
		{"zero max returns whole text", "whatever", 0, []string{"whatever"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ChunkText(tc.input, tc.maxChars)
			if len(got) != len(tc.expected) {
				t.Fatalf("Expected %d chunks, got %d: %v", len(tc.expected), len(got), got)
			}
			for i := range got {
				if got[i] != tc.expected[i] {
					t.Errorf("Chunk %d: expected %q, got %q", i, tc.expected[i], got[i])
				}
			}
		})
	}
}

func TestChunkTextBoundsRespected(t *testing.T) {
	text := strings.Repeat("word ", 500)
	maxChars := 64

	for i, chunk := range ChunkText(text, maxChars) {
		if len(chunk) > maxChars {
			t.Errorf("Chunk %d exceeds %d chars: %d", i, maxChars, len(chunk))
		}
		if chunk == "" {
			t.Errorf("Chunk %d is empty", i)
		}
	}
}

func TestChunkTextPreservesContent(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog"

	joined := strings.Join(ChunkText(text, 10), " ")
	if joined != text {
		t.Errorf("Expected rejoined chunks to equal input, got %q", joined)
	}
}
