package identity

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lbarbosa/docpipe/llm"
)

// stubProvider returns a canned reply or error.
type stubProvider struct {
	reply string
	err   error

	lastPrompt string
}

func (s *stubProvider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	if len(req.Messages) > 0 {
		s.lastPrompt = req.Messages[len(req.Messages)-1].Content
	}
	if s.err != nil {
		return nil, s.err
	}
	return &llm.ChatResponse{Content: s.reply}, nil
}

func newTestExtractor(p llm.Provider) *Extractor {
	e := New(p, "test-model")
	e.now = func() time.Time {
		return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	}
	return e
}

func TestExtractNotConfigured(t *testing.T) {
	f := NewDisabled().Extract(context.Background(), "some text")
	if f.Error != "not configured" {
		t.Errorf("Error = %q, want %q", f.Error, "not configured")
	}
	if f.Name != nil || f.DOB != nil || f.Age != nil {
		t.Error("disabled extractor must leave all fields nil")
	}
	if NewDisabled().Enabled() {
		t.Error("Enabled() = true for disabled extractor")
	}
}

func TestExtractFullResult(t *testing.T) {
	p := &stubProvider{reply: `{"name": "John Doe", "dob": "1990-05-15"}`}
	f := newTestExtractor(p).Extract(context.Background(), "Name: John Doe, DOB: 1990-05-15")

	if f.Error != "" {
		t.Fatalf("unexpected error: %s", f.Error)
	}
	if f.Name == nil || *f.Name != "John Doe" {
		t.Errorf("Name = %v, want John Doe", f.Name)
	}
	if f.DOB == nil || *f.DOB != "1990-05-15" {
		t.Errorf("DOB = %v, want 1990-05-15", f.DOB)
	}
	if f.Age == nil || *f.Age != 34 {
		t.Errorf("Age = %v, want 34", f.Age)
	}
	if !strings.Contains(p.lastPrompt, "Name: John Doe, DOB: 1990-05-15") {
		t.Error("document text missing from prompt")
	}
}

func TestExtractFencedReplyParsesIdentically(t *testing.T) {
	plain := `{"name": "Jane Smith", "dob": "1985"}`

	for _, tt := range []struct {
		name  string
		reply string
	}{
		{"unwrapped", plain},
		{"json fence", "```json\n" + plain + "\n```"},
		{"bare fence", "```\n" + plain + "\n```"},
		{"fence no newlines", "```json" + plain + "```"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestExtractor(&stubProvider{reply: tt.reply}).Extract(context.Background(), "text")
			if f.Error != "" {
				t.Fatalf("unexpected error: %s", f.Error)
			}
			if f.Name == nil || *f.Name != "Jane Smith" {
				t.Errorf("Name = %v", f.Name)
			}
			if f.Age == nil || *f.Age != 39 {
				t.Errorf("Age = %v, want 39", f.Age)
			}
		})
	}
}

func TestExtractUnterminatedFenceIsNotStripped(t *testing.T) {
	// Only one delimiter present: the reply must be parsed as-is, which
	// fails, and the failure is reported as data.
	f := newTestExtractor(&stubProvider{reply: "```json\n{\"name\": null, \"dob\": null}"}).
		Extract(context.Background(), "text")
	if f.Error == "" {
		t.Fatal("expected a parse error for a half-fenced reply")
	}
}

func TestExtractMalformedReply(t *testing.T) {
	raw := "Sorry, I cannot help with that. " + strings.Repeat("x", 300)
	f := newTestExtractor(&stubProvider{reply: raw}).Extract(context.Background(), "text")

	if f.Error == "" {
		t.Fatal("expected field-level error for malformed JSON")
	}
	if !strings.Contains(f.Error, raw[:200]) {
		t.Error("error should carry the start of the raw reply")
	}
	if strings.Contains(f.Error, raw[:220]) {
		t.Error("error carries more than 200 characters of the raw reply")
	}
}

func TestExtractNullFields(t *testing.T) {
	f := newTestExtractor(&stubProvider{reply: `{"name": null, "dob": null}`}).
		Extract(context.Background(), "text")
	if f.Error != "" {
		t.Fatalf("unexpected error: %s", f.Error)
	}
	if f.Name != nil || f.DOB != nil || f.Age != nil {
		t.Errorf("fields = %+v, want all nil", f)
	}
}

func TestExtractUnrecognizedDOBDropsAgeSilently(t *testing.T) {
	f := newTestExtractor(&stubProvider{reply: `{"name": "A B", "dob": "May 1990"}`}).
		Extract(context.Background(), "text")
	if f.Error != "" {
		t.Fatalf("unrecognized dob must not raise an error, got %q", f.Error)
	}
	if f.DOB == nil || *f.DOB != "May 1990" {
		t.Errorf("DOB = %v, want the verbatim string", f.DOB)
	}
	if f.Age != nil {
		t.Errorf("Age = %d, want nil", *f.Age)
	}
}

func TestExtractProviderFailure(t *testing.T) {
	f := newTestExtractor(&stubProvider{err: errors.New("connection refused")}).
		Extract(context.Background(), "text")
	if !strings.Contains(f.Error, "connection refused") {
		t.Errorf("Error = %q, want underlying message", f.Error)
	}
}
