// Package extract turns a PDF into structured text and image content.
package extract

import (
	"context"
	"encoding/json"
	"strings"
)

// TextSegment is one extracted text node with its service metadata.
type TextSegment struct {
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
}

// ImageRef points at an extracted image written to the processing directory.
type ImageRef struct {
	Path     string            `json:"image_path"`
	Metadata map[string]string `json:"metadata"`
}

// Result is the outcome of one extraction run. Failures reported by the
// extraction service are carried in Err; only local faults (unreadable
// file) surface as Go errors from Extract. A Result is never mutated after
// the extractor returns it.
type Result struct {
	Raw    json.RawMessage `json:"raw"`
	Texts  []TextSegment   `json:"texts"`
	Images []ImageRef      `json:"images"`
	Err    string          `json:"error,omitempty"`
}

// JoinText concatenates all segment texts with newlines.
func (r *Result) JoinText() string {
	parts := make([]string, 0, len(r.Texts))
	for _, t := range r.Texts {
		parts = append(parts, t.Text)
	}
	return strings.Join(parts, "\n")
}

// Extractor is implemented by the live LlamaParse client, the local native
// extractor, and the deterministic stub used in tests.
type Extractor interface {
	Extract(ctx context.Context, pdfPath string) (*Result, error)
}
