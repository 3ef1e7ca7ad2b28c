// Package enrich orchestrates the two-stage post enrichment flow:
// text repair → per-post metadata extraction → batch tag unification.
package enrich

import (
	"context"
	"maps"

	"github.com/cognicore/enrich/pkg/enrich/extract"
	"github.com/cognicore/enrich/pkg/enrich/textrepair"
	"github.com/cognicore/enrich/pkg/enrich/unify"
)

// Post is one raw social-media record. The pipeline interprets only the
// "text" field and writes "line_count", "language" and "tags"; every other
// field passes through unchanged.
type Post map[string]any

// Text returns the post's text field, reporting whether it is present and
// is a string.
func (p Post) Text() (string, bool) {
	v, ok := p["text"]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Pipeline runs the full enrichment flow over an in-memory batch.
type Pipeline struct {
	extractor *extract.Extractor
	unifier   *unify.Unifier
}

// Options configures a Pipeline instance.
type Options struct {
	Extractor *extract.Extractor
	Unifier   *unify.Unifier
}

// New creates a Pipeline with the given dependencies.
func New(opts Options) *Pipeline {
	return &Pipeline{
		extractor: opts.Extractor,
		unifier:   opts.Unifier,
	}
}

// Report summarizes one pipeline run.
type Report struct {
	PostsIn          int
	PostsOut         int
	Skipped          int // posts without a usable text field
	ExtractFallbacks int // posts enriched with the deterministic fallback record
	UnifyFallback    bool
}

// Run enriches the batch sequentially: one extraction call per valid post,
// then at most one unification call for the whole batch. Posts without a
// text field are excluded from the output; service failures never abort
// the run. Input posts are not mutated.
func (p *Pipeline) Run(ctx context.Context, posts []Post) ([]Post, Report) {
	report := Report{PostsIn: len(posts)}
	enriched := make([]Post, 0, len(posts))
	tagSet := make(map[string]struct{})

	for _, post := range posts {
		text, ok := post.Text()
		if !ok {
			report.Skipped++
			continue
		}

		out := maps.Clone(post)
		repaired := textrepair.Repair(text)
		out["text"] = repaired

		md, degraded := p.extractor.Extract(ctx, repaired)
		if degraded {
			report.ExtractFallbacks++
		}

		out["line_count"] = md.LineCount
		out["language"] = md.Language
		out["tags"] = md.Tags
		for _, tag := range md.Tags {
			tagSet[tag] = struct{}{}
		}

		enriched = append(enriched, out)
	}

	if len(enriched) == 0 {
		return enriched, report
	}

	tags := make([]string, 0, len(tagSet))
	for tag := range tagSet {
		tags = append(tags, tag)
	}

	mapping, degraded := p.unifier.Unify(ctx, tags)
	report.UnifyFallback = degraded

	for _, post := range enriched {
		current, _ := post["tags"].([]string)
		post["tags"] = rewriteTags(current, mapping)
	}

	report.PostsOut = len(enriched)
	return enriched, report
}

// rewriteTags maps each tag through the unification result, collapsing
// originals that merged into the same canonical tag.
func rewriteTags(tags []string, mapping map[string]string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		unified, ok := mapping[tag]
		if !ok {
			unified = tag
		}
		if _, dup := seen[unified]; dup {
			continue
		}
		seen[unified] = struct{}{}
		out = append(out, unified)
	}
	return out
}
