// Package jsonfile persists post batches as human-readable JSON arrays.
package jsonfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/gogs/chardet"

	"github.com/cognicore/enrich/pkg/enrich"
	"github.com/cognicore/enrich/pkg/enrich/internalerr"
)

// Load reads a batch of posts. Encoding and syntax failures are reported
// under distinct sentinel errors so the caller can tell a decode problem
// from a malformed document.
func Load(path string) ([]enrich.Post, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: input is not valid UTF-8 (looks like %s)",
			internalerr.ErrBadEncoding, guessCharset(data))
	}

	var posts []enrich.Post
	if err := json.Unmarshal(data, &posts); err != nil {
		var syn *json.SyntaxError
		if errors.As(err, &syn) {
			return nil, fmt.Errorf("%w: invalid JSON at offset %d: %v",
				internalerr.ErrBadSyntax, syn.Offset, err)
		}
		return nil, fmt.Errorf("%w: %v", internalerr.ErrBadSyntax, err)
	}
	return posts, nil
}

// Save writes the batch pretty-printed. HTML escaping is disabled so
// non-ASCII text is preserved literally rather than as \u escapes.
func Save(path string, posts []enrich.Post) error {
	if posts == nil {
		posts = []enrich.Post{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(posts); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func guessCharset(data []byte) string {
	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || result.Charset == "" {
		return "an unknown encoding"
	}
	return result.Charset
}
