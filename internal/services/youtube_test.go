package services

import "testing"

func TestCleanTranscript(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			"strips bracketed annotations",
			"[Music] welcome back everyone [Applause]",
			"welcome back everyone",
		},
		{
			"strips parenthetical annotations",
			"so as I was saying (laughter) this matters",
			"so as I was saying this matters",
		},
		{
			"collapses whitespace runs",
			"one   two\t\tthree\n\nfour",
			"one two three four",
		},
		{
			"strips artifact characters",
			">> SPEAKER: hello ♪♪ there",
			"SPEAKER: hello there",
		},
		{
			"trims",
			"   padded   ",
			"padded",
		},
		{
			"strips nested brackets",
			"intro [[Music]] outro",
			"intro outro",
		},
		{
			"strips nested parens",
			"before ((applause)) after",
			"before after",
		},
		{
			"strips brackets with nested content",
			"start [a [b] c] end",
			"start end",
		},
		{
			"strips byte order marks",
			"hello \uFEFFworld",
			"hello world",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CleanTranscript(tc.input); got != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestCleanTranscriptIdempotent(t *testing.T) {
	inputs := []string{
		"[Music] welcome back (applause) to   the show ♪",
		"plain text with no annotations at all",
		"intro [[Music]] outro",
		"before ((applause)) after",
		"start [a [b] c] end",
		"",
	}

	for _, input := range inputs {
		once := CleanTranscript(input)
		twice := CleanTranscript(once)
		if once != twice {
			t.Errorf("Cleaning not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestExtractCaptionURL(t *testing.T) {
	page := `{"captionTracks":[{"baseUrl":"https:\/\/www.youtube.com\/api\/timedtext?v=abc\u0026lang=en","name":"English"}],"x":"y"`

	u, err := extractCaptionURL(page)
	if err != nil {
		t.Fatalf("Expected caption URL, got error: %v", err)
	}
	if u != "https://www.youtube.com/api/timedtext?v=abc\u0026lang=en" {
		t.Errorf("Expected unescaped URL, got %q", u)
	}
}

func TestExtractCaptionURLMissing(t *testing.T) {
	if _, err := extractCaptionURL("<html>no captions here</html>"); err == nil {
		t.Error("Expected an error when page has no caption tracks")
	}
}

func TestParseCaptionsXML(t *testing.T) {
	data := []byte(`<transcript><text start="0" dur="2">hello &amp; welcome</text><text start="2" dur="2"> everyone </text></transcript>`)

	got, err := parseCaptionsXML(data)
	if err != nil {
		t.Fatalf("Expected parse to succeed: %v", err)
	}
	if got != "hello & welcome everyone" {
		t.Errorf("Expected joined unescaped text, got %q", got)
	}
}
