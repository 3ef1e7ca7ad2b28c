package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
)

// Defaults mirror the prompt contract: the completion service is asked for
// at most two tags, and post text is capped to keep the prompt bounded.
const (
	DefaultMaxPromptChars = 2000
	DefaultMaxTags        = 2
)

// Completer is the narrow capability the extractor needs from an LLM.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Metadata is the structured record derived from one post.
type Metadata struct {
	LineCount int
	Language  string
	Tags      []string
}

// Extractor derives per-post metadata via a single completion call.
type Extractor struct {
	Completer      Completer
	MaxPromptChars int // rune cap on post text embedded in the prompt; 0 means DefaultMaxPromptChars
	MaxTags        int // clamp on service-returned tags; 0 means DefaultMaxTags
}

const metadataPrompt = `You are given a social media post. You need to extract number of lines, language of the post and tags.
1. Return a valid JSON. No preamble.
2. JSON object should have exactly three keys: line_count, language and tags.
3. tags is an array of text tags. Extract maximum two tags.
4. Language should be English or Hinglish (Hinglish means Hindi + English)

Here is the actual post on which you need to perform this task:
%s`

// Extract returns metadata for the given post text. It never fails: any
// service or parse error degrades to the deterministic fallback record,
// and the second return value reports that degradation.
func (e *Extractor) Extract(ctx context.Context, text string) (Metadata, bool) {
	if e.Completer == nil {
		log.Printf("extract: no completer configured, using fallback")
		return Fallback(text), true
	}

	prompt := fmt.Sprintf(metadataPrompt, truncate(text, e.maxPromptChars()))

	raw, err := e.Completer.Complete(ctx, prompt)
	if err != nil {
		log.Printf("extract: completion failed, using fallback: %v", err)
		return Fallback(text), true
	}

	md, err := parseMetadata(raw)
	if err != nil {
		log.Printf("extract: unparseable metadata response, using fallback: %v", err)
		return Fallback(text), true
	}

	return e.clamp(md), false
}

// Fallback is the deterministic record used when extraction fails. The line
// count is computed from the original, untruncated text.
func Fallback(text string) Metadata {
	return Metadata{
		LineCount: strings.Count(text, "\n") + 1,
		Language:  "Unknown",
		Tags:      []string{},
	}
}

func (e *Extractor) maxPromptChars() int {
	if e.MaxPromptChars > 0 {
		return e.MaxPromptChars
	}
	return DefaultMaxPromptChars
}

func (e *Extractor) maxTags() int {
	if e.MaxTags > 0 {
		return e.MaxTags
	}
	return DefaultMaxTags
}

// truncate caps text at max runes, appending a marker when it was cut.
func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}

// parseMetadata validates the expected key set before trusting field values.
func parseMetadata(raw string) (Metadata, error) {
	cleaned := stripFences(raw)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return Metadata{}, fmt.Errorf("response is not a JSON object: %w", err)
	}
	for _, key := range []string{"line_count", "language", "tags"} {
		if _, ok := fields[key]; !ok {
			return Metadata{}, fmt.Errorf("response missing key %q", key)
		}
	}

	var payload struct {
		LineCount int      `json:"line_count"`
		Language  string   `json:"language"`
		Tags      []string `json:"tags"`
	}
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return Metadata{}, fmt.Errorf("response has wrong field types: %w", err)
	}

	return Metadata{
		LineCount: payload.LineCount,
		Language:  payload.Language,
		Tags:      payload.Tags,
	}, nil
}

// clamp enforces the prompt contract the service was asked to follow but is
// not guaranteed to honor.
func (e *Extractor) clamp(md Metadata) Metadata {
	if md.LineCount < 0 {
		md.LineCount = 0
	}
	if strings.TrimSpace(md.Language) == "" {
		md.Language = "Unknown"
	}

	max := e.maxTags()
	tags := make([]string, 0, len(md.Tags))
	for _, tag := range md.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
		if len(tags) == max {
			break
		}
	}
	md.Tags = tags

	return md
}

// stripFences removes a Markdown code fence wrapper some models emit even
// when asked for bare JSON.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
