package services

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	ytapi "github.com/hightemp/youtube-transcript-api-go/api"
	yt "github.com/kkdai/youtube/v2"
)

// VideoMetadata is the best-effort descriptive data attached to a
// video-sourced envelope.
type VideoMetadata struct {
	Title           string
	Channel         string
	DurationSeconds int
}

type YouTubeService struct {
	httpClient    *http.Client
	transcriptAPI *ytapi.YouTubeTranscriptApi
	ytClient      *yt.Client
}

type timedTextXML struct {
	XMLName xml.Name  `xml:"transcript"`
	Texts   []textXML `xml:"text"`
}

type textXML struct {
	Start string `xml:"start,attr"`
	Dur   string `xml:"dur,attr"`
	Text  string `xml:",chardata"`
}

func NewYouTubeService() *YouTubeService {
	return &YouTubeService{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		transcriptAPI: ytapi.NewYouTubeTranscriptApi(),
		ytClient:      &yt.Client{},
	}
}

var (
	bracketAnnotationRe = regexp.MustCompile(`\[[^\[\]]*\]`)
	parenAnnotationRe   = regexp.MustCompile(`\([^()]*\)`)
	artifactRe          = regexp.MustCompile(`[\x{266a}\x{266b}\x{feff}]|>>+`)
	whitespaceRe        = regexp.MustCompile(`\s+`)
)

// CleanTranscript normalizes raw caption text: annotations such as
// "[music]" and "(applause)" are removed, artifact characters stripped,
// whitespace runs collapsed. Cleaning already-cleaned text is a no-op.
func CleanTranscript(raw string) string {
	text := raw
	// The annotation patterns match innermost pairs only, so nested
	// forms like "[[Music]]" need repeated passes until stable.
	for {
		stripped := bracketAnnotationRe.ReplaceAllString(text, " ")
		stripped = parenAnnotationRe.ReplaceAllString(stripped, " ")
		if stripped == text {
			break
		}
		text = stripped
	}
	text = artifactRe.ReplaceAllString(text, " ")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// GetTranscript fetches captions for a video and returns cleaned plain
// text. Errors are classified: *NotFoundError when no captions exist or
// they resolve to empty text, a wrapped generic error otherwise.
func (s *YouTubeService) GetTranscript(ctx context.Context, videoID string) (string, error) {
	transcript, err := s.transcriptAPI.GetTranscript(videoID, []string{"en", "en-US", "en-GB"})
	if err != nil {
		// Fallback: request any available language
		transcript, err = s.transcriptAPI.GetTranscript(videoID, nil)
		if err != nil {
			legacyTranscript, legacyErr := s.getTranscriptViaTimedText(ctx, videoID)
			if legacyErr == nil {
				return legacyTranscript, nil
			}
			if isNoCaptions(err) || isNoCaptions(legacyErr) {
				return "", &NotFoundError{Message: "Captions are disabled or unavailable for this video"}
			}
			return "", fmt.Errorf("transcript fetch failed via API (%v) and timedtext fallback (%v)", err, legacyErr)
		}
	}

	if len(transcript.Entries) == 0 {
		return "", &NotFoundError{Message: "Subtitle track is empty for this video"}
	}

	var fullText strings.Builder
	for _, entry := range transcript.Entries {
		text := strings.TrimSpace(entry.Text)
		if text == "" {
			continue
		}
		fullText.WriteString(text)
		fullText.WriteString(" ")
	}

	cleaned := CleanTranscript(fullText.String())
	if cleaned == "" {
		return "", &NotFoundError{Message: "Subtitle text resolved to empty content"}
	}

	return cleaned, nil
}

func isNoCaptions(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no captions") ||
		strings.Contains(msg, "disabled") ||
		strings.Contains(msg, "not found") ||
		strings.Contains(msg, "no subtitles")
}

// GetVideoMetadata resolves title/channel/duration for the envelope.
// Failures here never fail the pipeline; callers treat the result as
// best-effort.
func (s *YouTubeService) GetVideoMetadata(ctx context.Context, videoID string) (*VideoMetadata, error) {
	video, err := s.ytClient.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch video metadata: %w", err)
	}

	return &VideoMetadata{
		Title:           video.Title,
		Channel:         video.Author,
		DurationSeconds: int(video.Duration.Seconds()),
	}, nil
}

// getTranscriptViaTimedText scrapes the watch page for a caption track
// when the transcript API comes back empty. Kept as a second chance, not
// the primary path.
func (s *YouTubeService) getTranscriptViaTimedText(ctx context.Context, videoID string) (string, error) {
	pageURL := fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch YouTube page: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read YouTube page: %w", err)
	}

	captionURL, err := extractCaptionURL(string(body))
	if err != nil {
		return "", err
	}

	captionReq, err := http.NewRequestWithContext(ctx, http.MethodGet, captionURL, nil)
	if err != nil {
		return "", err
	}
	captionResp, err := s.httpClient.Do(captionReq)
	if err != nil {
		return "", fmt.Errorf("failed to fetch captions: %w", err)
	}
	defer captionResp.Body.Close()

	captionBody, err := io.ReadAll(captionResp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read captions: %w", err)
	}

	transcript, err := parseCaptionsXML(captionBody)
	if err != nil {
		return "", fmt.Errorf("failed to parse captions XML: %w", err)
	}

	return CleanTranscript(transcript), nil
}

func extractCaptionURL(pageHTML string) (string, error) {
	re := regexp.MustCompile(`"captionTracks"\s*:\s*\[(.*?)\],\s*"`)
	matches := re.FindStringSubmatch(pageHTML)
	if len(matches) < 2 {
		re2 := regexp.MustCompile(`"playerCaptionsTracklistRenderer"\s*:\s*\{(?:.*?,)?\s*"captionTracks"\s*:\s*\[(.*?)\],\s*"`)
		matches = re2.FindStringSubmatch(pageHTML)
		if len(matches) < 2 {
			return "", fmt.Errorf("no captions available for this video")
		}
	}

	tracksJSON := matches[1]
	reURL := regexp.MustCompile(`"baseUrl"\s*:\s*"(.*?)"`)
	urlMatches := reURL.FindStringSubmatch(tracksJSON)
	if len(urlMatches) < 2 {
		return "", fmt.Errorf("caption track found but baseUrl missing")
	}

	u := urlMatches[1]
	u = strings.ReplaceAll(u, `\u0026`, "&")
	u = strings.ReplaceAll(u, `\/`, "/")

	return u, nil
}

func parseCaptionsXML(data []byte) (string, error) {
	var tt timedTextXML
	if err := xml.Unmarshal(data, &tt); err != nil {
		return "", err
	}

	var parts []string
	for _, t := range tt.Texts {
		text := html.UnescapeString(t.Text)
		text = strings.TrimSpace(text)
		if text != "" {
			parts = append(parts, text)
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("captions XML empty")
	}

	return strings.Join(parts, " "), nil
}
