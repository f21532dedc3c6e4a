package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"clipstudy-backend/internal/models"
)

const (
	// QuizLength is the fixed number of questions in every generated quiz,
	// regardless of what the model returns.
	QuizLength = 10

	// OptionsPerQuestion is the fixed number of answer options per question.
	OptionsPerQuestion = 4

	maxKeyPoints   = 10
	titleInputSize = 500

	elisionMarker = "\n\n[... middle of transcript omitted ...]\n\n"
)

var correctLabels = []string{"A", "B", "C", "D"}

type GeminiService struct {
	client     *genai.Client
	model      *genai.GenerativeModel
	rateChan   chan struct{} // Token bucket
	charBudget int
}

func NewGeminiService(apiKey, modelName string, temperature float32, maxTokens, concurrentReqs, charBudget int) (*GeminiService, error) {
	if apiKey == "" {
		return nil, &ConfigError{Message: "Gemini API key is not configured"}
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(0.95)
	model.SetMaxOutputTokens(int32(maxTokens))

	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiService{
		client:     client,
		model:      model,
		rateChan:   rateChan,
		charBudget: charBudget,
	}, nil
}

func (s *GeminiService) Close() {
	s.client.Close()
}

// acquireRate blocks until a rate slot is available
func (s *GeminiService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Minute):
		return &RateLimitError{Message: "timeout waiting for a Gemini rate slot"}
	}
}

func (s *GeminiService) releaseRate() {
	s.rateChan <- struct{}{}
}

// ProcessTranscript generates the full bundle for cleaned transcript text.
// Summary, key points, quiz, and title run concurrently; the first failure
// cancels the rest and propagates.
func (s *GeminiService) ProcessTranscript(ctx context.Context, text, sourceID string) (*models.LearningBundle, error) {
	prepared := truncateForPrompt(text, s.charBudget)

	var (
		summary   string
		keyPoints []string
		quiz      []models.QuizQuestion
		title     string
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		out, err := s.generateSummary(gctx, prepared)
		if err != nil {
			return err
		}
		summary = out
		return nil
	})

	g.Go(func() error {
		out, err := s.generateKeyPoints(gctx, prepared)
		if err != nil {
			return err
		}
		keyPoints = out
		return nil
	})

	g.Go(func() error {
		out, err := s.generateQuiz(gctx, prepared)
		if err != nil {
			return err
		}
		quiz = out
		return nil
	})

	g.Go(func() error {
		out, err := s.generateTitle(gctx, text)
		if err != nil {
			return err
		}
		title = out
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("generation failed for %s: %w", sourceID, err)
	}

	return &models.LearningBundle{
		Title:     title,
		Summary:   summary,
		KeyPoints: keyPoints,
		Quiz:      quiz,
	}, nil
}

// generate issues one model call and returns the raw text output.
func (s *GeminiService) generate(ctx context.Context, prompt string) (string, error) {
	if err := s.acquireRate(ctx); err != nil {
		return "", err
	}
	defer s.releaseRate()

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", classifyProviderError(err)
	}

	for _, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonStop {
			log.Printf("gemini: candidate stopped early: %s", cand.FinishReason)
		}
	}

	return extractText(resp), nil
}

// classifyProviderError separates quota conditions from unreachable or
// misconfigured providers. Malformed output never reaches here; the
// parsers absorb it.
func classifyProviderError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == 429:
			return &RateLimitError{Message: "Gemini quota or rate limit exceeded"}
		case gerr.Code == 401 || gerr.Code == 403:
			return &ConfigError{Message: "Gemini credential was rejected"}
		case gerr.Code >= 500:
			return &UnavailableError{Message: "Gemini is currently unavailable"}
		}
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "quota") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "resource exhausted") {
		return &RateLimitError{Message: "Gemini quota or rate limit exceeded"}
	}

	return &UnavailableError{Message: fmt.Sprintf("Gemini request failed: %v", err)}
}

func (s *GeminiService) generateSummary(ctx context.Context, text string) (string, error) {
	raw, err := s.generate(ctx, buildSummaryPrompt(text))
	if err != nil {
		return "", err
	}

	summary := strings.TrimSpace(raw)
	if summary == "" {
		return "", &UnavailableError{Message: "Gemini returned an empty summary"}
	}
	return summary, nil
}

func (s *GeminiService) generateKeyPoints(ctx context.Context, text string) ([]string, error) {
	raw, err := s.generate(ctx, buildKeyPointsPrompt(text))
	if err != nil {
		return nil, err
	}
	// A short list is tolerated, not an error.
	return parseKeyPoints(raw), nil
}

func (s *GeminiService) generateQuiz(ctx context.Context, text string) ([]models.QuizQuestion, error) {
	raw, err := s.generate(ctx, buildQuizPrompt(text))
	if err != nil {
		return nil, err
	}

	parsed, parseErr := parseQuizJSON(raw)
	if parseErr != nil {
		log.Printf("gemini: quiz output unparseable, padding with placeholders: %v", parseErr)
	}
	return normalizeQuiz(parsed), nil
}

func (s *GeminiService) generateTitle(ctx context.Context, text string) (string, error) {
	head := text
	if utf8.RuneCountInString(head) > titleInputSize {
		head = string([]rune(head)[:titleInputSize])
	}

	raw, err := s.generate(ctx, buildTitlePrompt(head))
	if err != nil {
		return "", err
	}

	title := strings.Trim(strings.TrimSpace(raw), "\"'`#*")
	if idx := strings.IndexByte(title, '\n'); idx >= 0 {
		title = strings.TrimSpace(title[:idx])
	}
	if title == "" {
		title = "Untitled Content"
	}
	return title, nil
}

// truncateForPrompt keeps an equal prefix and suffix around an explicit
// elision marker when text exceeds the budget, so the model sees both the
// introduction and the conclusion of long-form content. The budget counts
// characters, and cuts land on rune boundaries: a prompt split mid-rune is
// invalid UTF-8 and the API rejects it.
func truncateForPrompt(text string, budget int) string {
	if budget <= 0 || utf8.RuneCountInString(text) <= budget {
		return text
	}

	runes := []rune(text)
	half := (budget - len(elisionMarker)) / 2
	if half <= 0 {
		return string(runes[:budget])
	}
	return string(runes[:half]) + elisionMarker + string(runes[len(runes)-half:])
}

// Helper functions

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}

// parseKeyPoints extracts bullet lines, strips the markers, and caps the
// result at maxKeyPoints.
func parseKeyPoints(raw string) []string {
	var points []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		var stripped string
		switch {
		case strings.HasPrefix(line, "- "):
			stripped = line[2:]
		case strings.HasPrefix(line, "* "):
			stripped = line[2:]
		case strings.HasPrefix(line, "•"):
			stripped = strings.TrimPrefix(line, "•")
		default:
			continue
		}

		stripped = strings.TrimSpace(stripped)
		if stripped == "" {
			continue
		}
		points = append(points, stripped)
		if len(points) == maxKeyPoints {
			break
		}
	}
	return points
}

// rawQuizQuestion matches the JSON schema the quiz prompt requests.
type rawQuizQuestion struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Correct     string   `json:"correct"`
	Explanation string   `json:"explanation"`
}

// parseQuizJSON runs the fallback chain: direct parse, fenced code block,
// then bracket-matched substring. Each strategy is attempted in order and
// the first success wins.
func parseQuizJSON(raw string) ([]rawQuizQuestion, error) {
	raw = strings.TrimSpace(raw)

	var questions []rawQuizQuestion
	if err := json.Unmarshal([]byte(raw), &questions); err == nil {
		return questions, nil
	}

	if fenced, ok := extractFencedBlock(raw); ok {
		if err := json.Unmarshal([]byte(fenced), &questions); err == nil {
			return questions, nil
		}
	}

	if sub, ok := extractJSONSubstring(raw); ok {
		if err := json.Unmarshal([]byte(sub), &questions); err == nil {
			return questions, nil
		}
		// A lone object is treated as a single-question array.
		var one rawQuizQuestion
		if err := json.Unmarshal([]byte(sub), &one); err == nil {
			return []rawQuizQuestion{one}, nil
		}
	}

	return nil, fmt.Errorf("no parseable JSON found in model output")
}

// extractFencedBlock returns the contents of the first ``` fenced block.
func extractFencedBlock(raw string) (string, bool) {
	start := strings.Index(raw, "```")
	if start < 0 {
		return "", false
	}
	rest := raw[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 && nl < 12 {
		// Skip a language tag such as "json" on the fence line.
		rest = rest[nl+1:]
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// extractJSONSubstring locates the first top-level JSON array or object by
// bracket matching, honoring string literals and escapes.
func extractJSONSubstring(raw string) (string, bool) {
	start := -1
	var open, close byte
	for i := 0; i < len(raw); i++ {
		if raw[i] == '[' || raw[i] == '{' {
			start = i
			open = raw[i]
			if open == '[' {
				close = ']'
			} else {
				close = '}'
			}
			break
		}
	}
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return raw[start : i+1], true
			}
		}
	}
	return "", false
}

// normalizeQuiz forces the fixed shape: exactly QuizLength questions, each
// with exactly OptionsPerQuestion options and a correct label in A-D.
// Missing fields become explicit placeholders, never fabricated content.
func normalizeQuiz(parsed []rawQuizQuestion) []models.QuizQuestion {
	quiz := make([]models.QuizQuestion, QuizLength)
	for i := 0; i < QuizLength; i++ {
		index := i + 1
		q := models.QuizQuestion{Index: index}

		if i < len(parsed) {
			raw := parsed[i]
			q.Question = strings.TrimSpace(raw.Question)
			q.Options = raw.Options
			q.Correct = strings.ToUpper(strings.TrimSpace(raw.Correct))
			q.Explanation = strings.TrimSpace(raw.Explanation)
		}

		if q.Question == "" {
			q.Question = fmt.Sprintf("Question %d could not be generated for this content.", index)
		}
		if !validOptions(q.Options) {
			q.Options = placeholderOptions()
		}
		if !validLabel(q.Correct) {
			q.Correct = "A"
		}
		if q.Explanation == "" {
			q.Explanation = "No explanation was provided for this question."
		}

		quiz[i] = q
	}
	return quiz
}

func validOptions(options []string) bool {
	if len(options) != OptionsPerQuestion {
		return false
	}
	for _, o := range options {
		if strings.TrimSpace(o) == "" {
			return false
		}
	}
	return true
}

func validLabel(label string) bool {
	for _, l := range correctLabels {
		if label == l {
			return true
		}
	}
	return false
}

func placeholderOptions() []string {
	return []string{"Option A", "Option B", "Option C", "Option D"}
}

// Prompt builders

func buildSummaryPrompt(text string) string {
	var b strings.Builder
	b.WriteString("You are an expert educational content analyst. Summarize the following transcript in 2-3 well-structured paragraphs.\n")
	b.WriteString("Write flowing prose, no headings, no bullet points, no markdown.\n\n")
	b.WriteString("---TRANSCRIPT START---\n")
	b.WriteString(text)
	b.WriteString("\n---TRANSCRIPT END---\n")
	return b.String()
}

func buildKeyPointsPrompt(text string) string {
	var b strings.Builder
	b.WriteString("You are an expert educational content analyst. Extract the 6 to 10 most important points from the following transcript.\n")
	b.WriteString("Return ONLY a bulleted list, one point per line, each line starting with \"- \". No preamble, no numbering, no markdown headings.\n\n")
	b.WriteString("---TRANSCRIPT START---\n")
	b.WriteString(text)
	b.WriteString("\n---TRANSCRIPT END---\n")
	return b.String()
}

func buildQuizPrompt(text string) string {
	var b strings.Builder
	b.WriteString("You are an expert educational assessor. Generate quiz questions based on the following content.\n\n")
	b.WriteString("CRITICAL: Return ONLY a valid JSON array. No preamble, no markdown, no backticks.\n\n")
	b.WriteString(fmt.Sprintf("Generate exactly %d multiple choice questions.\n", QuizLength))
	b.WriteString(`
JSON schema per question:
{"question": "string", "options": ["string", "string", "string", "string"], "correct": "A"|"B"|"C"|"D", "explanation": "string"}

Exactly 4 options per question. "correct" is the letter of the right option.
`)
	b.WriteString("\n---CONTENT---\n")
	b.WriteString(text)
	b.WriteString("\n---END---\n")
	return b.String()
}

func buildTitlePrompt(head string) string {
	var b strings.Builder
	b.WriteString("Given the opening of a transcript, return ONLY a concise descriptive title under 60 characters. No quotes, no markdown, no explanation.\n\n")
	b.WriteString(head)
	return b.String()
}
