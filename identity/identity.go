// Package identity extracts name, date of birth, and a derived age from
// document text via an LLM.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lbarbosa/docpipe/llm"
)

// Fields holds the identity attributes extracted from one document. A
// failure anywhere in the stage is reported through Error; the other fields
// are nil in that case. Fields is never mutated after Extract returns it.
type Fields struct {
	Name  *string `json:"name"`
	DOB   *string `json:"dob"`
	Age   *int    `json:"age"`
	Error string  `json:"error,omitempty"`
}

// Extractor runs the identity extraction prompt against a chat provider.
// The zero provider ("disabled" variant) reports "not configured" instead
// of raising, so a missing credential never fails the pipeline.
type Extractor struct {
	provider llm.Provider
	model    string
	now      func() time.Time
}

// New returns an extractor backed by the given provider.
func New(provider llm.Provider, model string) *Extractor {
	return &Extractor{provider: provider, model: model, now: time.Now}
}

// NewDisabled returns the explicit disabled variant: Extract reports
// "not configured" without any network access.
func NewDisabled() *Extractor {
	return &Extractor{now: time.Now}
}

// Enabled reports whether a provider is configured.
func (e *Extractor) Enabled() bool { return e.provider != nil }

// Extract asks the model for name and date of birth, derives the age, and
// returns the result. It never returns a Go error: transport failures,
// malformed replies, and a disabled provider are all reported as data in
// the Error field.
func (e *Extractor) Extract(ctx context.Context, documentText string) Fields {
	if e.provider == nil {
		return Fields{Error: "not configured"}
	}

	resp, err := e.provider.Chat(ctx, llm.ChatRequest{
		Model:       e.model,
		Messages:    []llm.Message{{Role: "user", Content: buildPrompt(documentText)}},
		Temperature: 0.0,
	})
	if err != nil {
		return Fields{Error: err.Error()}
	}
	return e.parseReply(resp.Content)
}

// parseReply decodes the model output, stripping a surrounding code fence
// first if one is present.
func (e *Extractor) parseReply(raw string) Fields {
	var out struct {
		Name *string `json:"name"`
		DOB  *string `json:"dob"`
	}
	if err := json.Unmarshal([]byte(stripFence(raw)), &out); err != nil {
		return Fields{Error: fmt.Sprintf("could not parse model reply as JSON: %s", truncate(raw, 200))}
	}

	f := Fields{Name: out.Name, DOB: out.DOB}
	if out.DOB != nil {
		f.Age = deriveAge(*out.DOB, e.now())
	}
	return f
}

// stripFence removes a markdown code fence wrapping a model reply. The
// fence is stripped only when both the opening and closing delimiters are
// present; otherwise the reply is returned unchanged.
func stripFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return s
	}
	body := strings.TrimPrefix(t, "```")
	body = strings.TrimPrefix(body, "json")
	if !strings.HasSuffix(body, "```") {
		return s
	}
	return strings.TrimSpace(strings.TrimSuffix(body, "```"))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
