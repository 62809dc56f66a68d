package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		provider string
		wantType string
	}{
		{"openai", "*llm.openAIProvider"},
		{"groq", "*llm.groqProvider"},
		{"openrouter", "*llm.openRouterProvider"},
		{"gemini", "*llm.geminiProvider"},
		{"ollama", "*llm.ollamaProvider"},
		{"custom", "*llm.compatProvider"},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			p, err := NewProvider(Config{Provider: tt.provider, Model: "test-model"})
			if err != nil {
				t.Fatalf("NewProvider(%q) returned error: %v", tt.provider, err)
			}
			gotType := fmt.Sprintf("%T", p)
			if gotType != tt.wantType {
				t.Errorf("NewProvider(%q) type = %s, want %s", tt.provider, gotType, tt.wantType)
			}
		})
	}
}

func TestNewProviderUnknown(t *testing.T) {
	_, err := NewProvider(Config{Provider: "doesnotexist"})
	if err == nil {
		t.Fatal("expected error for unknown provider, got nil")
	}
	want := "unknown llm provider: doesnotexist"
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestNewProviderEmpty(t *testing.T) {
	_, err := NewProvider(Config{})
	if err == nil {
		t.Fatal("expected error for empty provider, got nil")
	}
}

func TestRequiresAPIKey(t *testing.T) {
	for _, p := range []string{"openai", "groq", "openrouter", "gemini"} {
		if !RequiresAPIKey(p) {
			t.Errorf("RequiresAPIKey(%q) = false, want true", p)
		}
	}
	for _, p := range []string{"ollama", "custom", ""} {
		if RequiresAPIKey(p) {
			t.Errorf("RequiresAPIKey(%q) = true, want false", p)
		}
	}
}

func TestChatRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("auth header = %q", got)
		}

		var req chatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("model = %q", req.Model)
		}
		if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
			t.Error("response_format not propagated")
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("messages = %+v", req.Messages)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"model": "test-model",
			"choices": []map[string]any{
				{
					"message":       map[string]string{"content": `{"name": "Jane"}`},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}))
	defer srv.Close()

	p := NewOpenAICompat(Config{Provider: "custom", BaseURL: srv.URL, APIKey: "secret"})
	resp, err := p.Chat(context.Background(), ChatRequest{
		Model:          "test-model",
		Messages:       []Message{{Role: "user", Content: "extract"}},
		ResponseFormat: "json_object",
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != `{"name": "Jane"}` {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.TotalTokens != 15 {
		t.Errorf("total tokens = %d, want 15", resp.TotalTokens)
	}
}

func TestChatAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "insufficient quota"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewOpenAICompat(Config{Provider: "custom", BaseURL: srv.URL})
	_, err := p.Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: "user", Content: "x"}},
	})
	if err == nil {
		t.Fatal("expected error for 429 response")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("error = %q, want status code in it", err)
	}
}
