package unify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Completer is the narrow capability the unifier needs from an LLM.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Unifier merges synonymous tags across a batch with one completion call.
type Unifier struct {
	Completer Completer
}

const unifyPrompt = `I will give you a list of tags. You need to unify tags with the following requirements:
1. Tags are unified and merged to create a shorter list.
   Example 1: "Jobseekers", "Job Hunting" -> "Job Search"
   Example 2: "Motivation", "Inspiration" -> "Motivation"
   Example 3: "Personal Growth", "Self Improvement" -> "Self Improvement"
   Example 4: "Scam Alert", "Job Scam" -> "Scams"
2. Use title case. Example: "Job Search", "Motivation"
3. Output must be a JSON object. No preamble.
4. Format: {"OldTag1": "UnifiedTag", "OldTag2": "UnifiedTag", ...}

Here is the list of tags:
%s`

// Unify returns a total mapping from each input tag to its canonical form.
// It never fails: any service or parse error degrades to the identity
// mapping, and the second return value reports that degradation. An empty
// tag set returns an empty mapping without calling the service.
func (u *Unifier) Unify(ctx context.Context, tags []string) (map[string]string, bool) {
	distinct := dedupeSorted(tags)
	if len(distinct) == 0 {
		return map[string]string{}, false
	}

	if u.Completer == nil {
		log.Printf("unify: no completer configured, using identity mapping")
		return identity(distinct), true
	}

	prompt := fmt.Sprintf(unifyPrompt, strings.Join(distinct, ", "))

	raw, err := u.Completer.Complete(ctx, prompt)
	if err != nil {
		log.Printf("unify: completion failed, using identity mapping: %v", err)
		return identity(distinct), true
	}

	parsed, err := parseMapping(raw)
	if err != nil {
		log.Printf("unify: unparseable mapping response, using identity mapping: %v", err)
		return identity(distinct), true
	}

	// Keep the mapping total over the input set: tags the service omitted
	// map to themselves, extra keys it invented are dropped.
	titler := cases.Title(language.English, cases.NoLower)
	mapping := make(map[string]string, len(distinct))
	for _, tag := range distinct {
		unified := strings.TrimSpace(parsed[tag])
		if unified == "" {
			mapping[tag] = tag
			continue
		}
		mapping[tag] = titler.String(unified)
	}
	return mapping, false
}

func parseMapping(raw string) (map[string]string, error) {
	cleaned := stripFences(raw)
	var mapping map[string]string
	if err := json.Unmarshal([]byte(cleaned), &mapping); err != nil {
		return nil, fmt.Errorf("response is not a JSON string mapping: %w", err)
	}
	return mapping, nil
}

func identity(tags []string) map[string]string {
	mapping := make(map[string]string, len(tags))
	for _, tag := range tags {
		mapping[tag] = tag
	}
	return mapping
}

// dedupeSorted returns the distinct tags in lexicographic order so prompt
// content is deterministic for a given batch.
func dedupeSorted(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	distinct := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		distinct = append(distinct, tag)
	}
	sort.Strings(distinct)
	return distinct
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
