package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type completerFunc func(ctx context.Context, prompt string) (string, error)

func (f completerFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

func TestExtractSuccess(t *testing.T) {
	e := &Extractor{
		Completer: completerFunc(func(ctx context.Context, prompt string) (string, error) {
			if !strings.Contains(prompt, "Great tips on job search!") {
				t.Fatalf("prompt should embed the post text, got: %s", prompt)
			}
			return `{"line_count": 1, "language": "English", "tags": ["Job Search"]}`, nil
		}),
	}

	md, degraded := e.Extract(context.Background(), "Great tips on job search!")
	if degraded {
		t.Fatal("successful extraction should not be degraded")
	}
	if md.LineCount != 1 {
		t.Errorf("LineCount = %d, want 1", md.LineCount)
	}
	if md.Language != "English" {
		t.Errorf("Language = %q, want English", md.Language)
	}
	if len(md.Tags) != 1 || md.Tags[0] != "Job Search" {
		t.Errorf("Tags = %v, want [Job Search]", md.Tags)
	}
}

func TestExtractFencedResponse(t *testing.T) {
	e := &Extractor{
		Completer: completerFunc(func(ctx context.Context, prompt string) (string, error) {
			return "```json\n{\"line_count\": 2, \"language\": \"Hinglish\", \"tags\": [\"Motivation\"]}\n```", nil
		}),
	}

	md, degraded := e.Extract(context.Background(), "kaam karo\nbest of luck")
	if degraded {
		t.Fatal("fenced JSON should still parse")
	}
	if md.Language != "Hinglish" {
		t.Errorf("Language = %q, want Hinglish", md.Language)
	}
	if md.LineCount != 2 {
		t.Errorf("LineCount = %d, want 2", md.LineCount)
	}
}

func TestExtractClampsExtraTags(t *testing.T) {
	e := &Extractor{
		Completer: completerFunc(func(ctx context.Context, prompt string) (string, error) {
			return `{"line_count": 1, "language": "English", "tags": ["A", " ", "B", "C"]}`, nil
		}),
	}

	md, _ := e.Extract(context.Background(), "post")
	if len(md.Tags) != 2 {
		t.Fatalf("expected tags clamped to 2, got %v", md.Tags)
	}
	if md.Tags[0] != "A" || md.Tags[1] != "B" {
		t.Errorf("Tags = %v, want [A B] (blanks dropped)", md.Tags)
	}
}

func TestExtractNegativeLineCountClamped(t *testing.T) {
	e := &Extractor{
		Completer: completerFunc(func(ctx context.Context, prompt string) (string, error) {
			return `{"line_count": -3, "language": "", "tags": []}`, nil
		}),
	}

	md, degraded := e.Extract(context.Background(), "post")
	if degraded {
		t.Fatal("parseable response should not be degraded")
	}
	if md.LineCount != 0 {
		t.Errorf("LineCount = %d, want 0", md.LineCount)
	}
	if md.Language != "Unknown" {
		t.Errorf("blank language should default to Unknown, got %q", md.Language)
	}
}

func TestExtractMissingKeyFallsBack(t *testing.T) {
	e := &Extractor{
		Completer: completerFunc(func(ctx context.Context, prompt string) (string, error) {
			return `{"line_count": 1, "tags": []}`, nil
		}),
	}

	md, degraded := e.Extract(context.Background(), "one\ntwo")
	if !degraded {
		t.Fatal("missing key should degrade to fallback")
	}
	if md.LineCount != 2 {
		t.Errorf("fallback LineCount = %d, want 2", md.LineCount)
	}
}

func TestExtractMalformedResponseFallsBack(t *testing.T) {
	e := &Extractor{
		Completer: completerFunc(func(ctx context.Context, prompt string) (string, error) {
			return "Sure! Here is the JSON you asked for: line_count is 5", nil
		}),
	}

	text := "line one\nline two\nline three"
	md, degraded := e.Extract(context.Background(), text)
	if !degraded {
		t.Fatal("malformed response should degrade to fallback")
	}
	if md.LineCount != 3 {
		t.Errorf("fallback LineCount = %d, want 3", md.LineCount)
	}
	if md.Language != "Unknown" {
		t.Errorf("fallback Language = %q, want Unknown", md.Language)
	}
	if len(md.Tags) != 0 {
		t.Errorf("fallback Tags = %v, want empty", md.Tags)
	}
}

func TestExtractServiceErrorFallsBack(t *testing.T) {
	e := &Extractor{
		Completer: completerFunc(func(ctx context.Context, prompt string) (string, error) {
			return "", errors.New("connection refused")
		}),
	}

	md, degraded := e.Extract(context.Background(), "hello")
	if !degraded {
		t.Fatal("service error should degrade to fallback")
	}
	if md.LineCount != 1 {
		t.Errorf("fallback LineCount = %d, want 1", md.LineCount)
	}
}

func TestExtractTruncatesLongText(t *testing.T) {
	var captured string
	e := &Extractor{
		Completer: completerFunc(func(ctx context.Context, prompt string) (string, error) {
			captured = prompt
			return `{"line_count": 1, "language": "English", "tags": []}`, nil
		}),
	}

	long := strings.Repeat("a", 2500) + "Z"
	e.Extract(context.Background(), long)

	if !strings.Contains(captured, strings.Repeat("a", 2000)+"...") {
		t.Error("prompt should contain the truncated text with marker")
	}
	if strings.Contains(captured, "Z") {
		t.Error("prompt should not contain text past the truncation point")
	}
}

func TestExtractFallbackUsesUntruncatedText(t *testing.T) {
	e := &Extractor{
		Completer: completerFunc(func(ctx context.Context, prompt string) (string, error) {
			return "", errors.New("timeout")
		}),
	}

	// Newlines live past the truncation cutoff; the fallback still counts them.
	text := strings.Repeat("a", 2100) + "\nx\ny"
	md, _ := e.Extract(context.Background(), text)
	if md.LineCount != 3 {
		t.Errorf("fallback LineCount = %d, want 3", md.LineCount)
	}
}

func TestFallback(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"", 1},
		{"one line", 1},
		{"a\nb", 2},
		{"a\nb\nc\n", 4},
	}
	for _, tc := range cases {
		md := Fallback(tc.text)
		if md.LineCount != tc.want {
			t.Errorf("Fallback(%q).LineCount = %d, want %d", tc.text, md.LineCount, tc.want)
		}
		if md.Language != "Unknown" {
			t.Errorf("Fallback(%q).Language = %q, want Unknown", tc.text, md.Language)
		}
		if len(md.Tags) != 0 {
			t.Errorf("Fallback(%q).Tags = %v, want empty", tc.text, md.Tags)
		}
	}
}
