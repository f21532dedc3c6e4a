package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"log"
	urlpkg "net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"clipstudy-backend/internal/cache"
	"clipstudy-backend/internal/models"
)

const (
	// Pasted transcript bounds, in characters.
	MinTranscriptChars = 100
	MaxTranscriptChars = 50000

	// fingerprintSpan is the prefix length the text fingerprint hashes
	// over. A 32-bit hash over this span is a latency/cost trade-off:
	// a collision causes a wrong cache hit, never corruption.
	fingerprintSpan = 1000
)

type transcriptSource interface {
	GetTranscript(ctx context.Context, videoID string) (string, error)
	GetVideoMetadata(ctx context.Context, videoID string) (*VideoMetadata, error)
}

type bundleGenerator interface {
	ProcessTranscript(ctx context.Context, text, sourceID string) (*models.LearningBundle, error)
}

type historyRecorder interface {
	Record(ctx context.Context, entry *models.HistoryEntry) error
}

// Processor coordinates cache lookup, transcript acquisition, generation,
// and cache population. It holds no state of its own: two concurrent
// requests for the same uncached fingerprint may both generate, which is
// accepted because the cache is read-through-on-miss.
type Processor struct {
	cache   cache.Store
	youtube transcriptSource
	gemini  bundleGenerator
	history historyRecorder // optional
}

func NewProcessor(store cache.Store, youtube transcriptSource, gemini bundleGenerator, history historyRecorder) *Processor {
	return &Processor{
		cache:   store,
		youtube: youtube,
		gemini:  gemini,
		history: history,
	}
}

// ProcessVideo runs the video path: fingerprint = video ID, cache lookup,
// transcript fetch on miss, generation, cache write. The returned bool is
// the cached flag.
func (p *Processor) ProcessVideo(ctx context.Context, videoURL string) (*models.ResultEnvelope, bool, error) {
	videoID := ExtractVideoID(videoURL)
	if videoID == "" {
		return nil, false, &ValidationError{
			Message: "Not a recognizable YouTube URL or video ID",
			Fields:  map[string]string{"video_url": "must be a YouTube URL or an 11-character video ID"},
		}
	}

	if env, ok := p.cache.Get(ctx, videoID); ok {
		return env, true, nil
	}

	start := time.Now()

	transcript, err := p.youtube.GetTranscript(ctx, videoID)
	if err != nil {
		return nil, false, err
	}
	transcript = CleanTranscript(transcript)
	if transcript == "" {
		return nil, false, &NotFoundError{Message: "Transcript resolved to empty text"}
	}

	bundle, err := p.gemini.ProcessTranscript(ctx, transcript, videoID)
	if err != nil {
		return nil, false, err
	}

	env := &models.ResultEnvelope{
		LearningBundle:  *bundle,
		VideoID:         videoID,
		VideoURL:        "https://www.youtube.com/watch?v=" + videoID,
		TranscriptChars: utf8.RuneCountInString(transcript),
		ProcessingMS:    time.Since(start).Milliseconds(),
		GeneratedAt:     time.Now().UTC(),
	}

	// Best effort: metadata failures never fail the pipeline.
	if meta, metaErr := p.youtube.GetVideoMetadata(ctx, videoID); metaErr == nil {
		env.Channel = meta.Channel
		env.DurationSeconds = meta.DurationSeconds
		if bundle.Title == "" || bundle.Title == "Untitled Content" {
			env.Title = meta.Title
		}
	}

	p.cache.Set(ctx, videoID, env)
	p.record(ctx, videoID, "youtube", &videoID, env)

	return env, false, nil
}

// ProcessText runs the pasted-transcript path. source distinguishes pasted
// text ("transcript") from extracted documents ("file") in history.
func (p *Processor) ProcessText(ctx context.Context, transcript, source string) (*models.ResultEnvelope, bool, error) {
	length := utf8.RuneCountInString(transcript)
	if length < MinTranscriptChars {
		return nil, false, &ValidationError{
			Message: fmt.Sprintf("Transcript too short: %d characters (minimum %d)", length, MinTranscriptChars),
			Fields:  map[string]string{"transcript": fmt.Sprintf("must be at least %d characters", MinTranscriptChars)},
		}
	}
	if length > MaxTranscriptChars {
		return nil, false, &ValidationError{
			Message: fmt.Sprintf("Transcript too long: %d characters (maximum %d)", length, MaxTranscriptChars),
			Fields:  map[string]string{"transcript": fmt.Sprintf("must be at most %d characters", MaxTranscriptChars)},
		}
	}

	fingerprint := TextFingerprint(transcript)
	if env, ok := p.cache.Get(ctx, fingerprint); ok {
		return env, true, nil
	}

	start := time.Now()

	cleaned := CleanTranscript(transcript)
	if cleaned == "" {
		return nil, false, &ValidationError{Message: "Transcript contains no usable text"}
	}

	bundle, err := p.gemini.ProcessTranscript(ctx, cleaned, fingerprint)
	if err != nil {
		return nil, false, err
	}

	env := &models.ResultEnvelope{
		LearningBundle:  *bundle,
		TranscriptChars: utf8.RuneCountInString(cleaned),
		ProcessingMS:    time.Since(start).Milliseconds(),
		GeneratedAt:     time.Now().UTC(),
	}

	p.cache.Set(ctx, fingerprint, env)
	p.record(ctx, fingerprint, source, nil, env)

	return env, false, nil
}

func (p *Processor) record(ctx context.Context, fingerprint, sourceType string, videoID *string, env *models.ResultEnvelope) {
	if p.history == nil {
		return
	}
	entry := &models.HistoryEntry{
		Fingerprint:     fingerprint,
		SourceType:      sourceType,
		VideoID:         videoID,
		Title:           env.Title,
		TranscriptChars: env.TranscriptChars,
		ProcessingMS:    env.ProcessingMS,
	}
	if err := p.history.Record(ctx, entry); err != nil {
		log.Printf("processor: failed to record history for %s: %v", fingerprint, err)
	}
}

// TextFingerprint computes the cache key for pasted text: FNV-32a over the
// first fingerprintSpan characters, prefixed so it can never collide with
// a video-ID key.
func TextFingerprint(transcript string) string {
	span := transcript
	if len(span) > fingerprintSpan {
		span = span[:fingerprintSpan]
	}
	h := fnv.New32a()
	h.Write([]byte(span))
	return fmt.Sprintf("txt:%08x", h.Sum32())
}

var bareVideoIDRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

// ExtractVideoID resolves the 11-character video identifier from known
// YouTube URL shapes, or accepts a bare identifier. Returns "" when the
// input matches nothing.
func ExtractVideoID(input string) string {
	input = strings.TrimSpace(input)
	if bareVideoIDRe.MatchString(input) {
		return input
	}

	parsed, err := urlpkg.Parse(input)
	if err == nil {
		host := strings.ToLower(parsed.Host)
		path := strings.Trim(parsed.Path, "/")

		// youtube.com/watch?v=VIDEO_ID
		if strings.Contains(host, "youtube.com") {
			if v := parsed.Query().Get("v"); len(v) == 11 {
				return v
			}

			parts := strings.Split(path, "/")
			if len(parts) >= 2 {
				switch parts[0] {
				case "shorts", "embed", "v", "live":
					if len(parts[1]) == 11 {
						return parts[1]
					}
				}
			}
		}

		// youtu.be/VIDEO_ID
		if strings.Contains(host, "youtu.be") {
			candidate := strings.Split(path, "/")[0]
			if len(candidate) == 11 {
				return candidate
			}
		}
	}

	// Fallback for unusual URL forms, but only on YouTube hosts: a v=
	// parameter on some other site is not a video reference.
	if strings.Contains(input, "youtube.com") || strings.Contains(input, "youtu.be") {
		re := regexp.MustCompile(`(?:v=|/v/|youtu\.be/|embed/|shorts/)([a-zA-Z0-9_-]{11})`)
		if m := re.FindStringSubmatch(input); len(m) > 1 {
			return m[1]
		}
	}

	return ""
}
