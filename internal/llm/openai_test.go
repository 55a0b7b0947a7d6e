package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/polemica/internal/model"
)

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}

		resp := openai.ChatCompletionResponse{
			ID:      "chatcmpl-123",
			Object:  "chat.completion",
			Created: 1677652288,
			Model:   "gpt-4o-mini",
			Choices: []openai.ChatCompletionChoice{
				{
					Index:        0,
					Message:      openai.ChatCompletionMessage{Role: "assistant", Content: content},
					FinishReason: "stop",
				},
			},
			Usage: openai.Usage{TotalTokens: 100},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestOpenAIProvider_Summarize_Success(t *testing.T) {
	server := chatServer(t, "Coverage mentions a lawsuit. Source: https://example.com/1")
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{
		APIKey:         "test-key",
		BaseURL:        server.URL,
		Model:          "gpt-4o-mini",
		Timeout:        5 * time.Second,
		StrictEvidence: true,
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Summarize(context.Background(), SummarizeRequest{
		Report:      model.ControversyReport{Name: "Acme"},
		AllowedURLs: []string{"https://example.com/1"},
	})
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if resp.Summary != "Coverage mentions a lawsuit. Source: https://example.com/1" {
		t.Errorf("Unexpected summary: %s", resp.Summary)
	}
	if len(resp.CitedURLs) != 1 || resp.CitedURLs[0] != "https://example.com/1" {
		t.Errorf("Unexpected cited URLs: %v", resp.CitedURLs)
	}
	if resp.TokensUsed != 100 {
		t.Errorf("Expected 100 tokens, got %d", resp.TokensUsed)
	}
}

func TestOpenAIProvider_Summarize_CitationLeak(t *testing.T) {
	server := chatServer(t, "See https://elsewhere.example/story.")
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{
		APIKey:         "test-key",
		BaseURL:        server.URL,
		StrictEvidence: true,
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	_, err = provider.Summarize(context.Background(), SummarizeRequest{
		Report:      model.ControversyReport{Name: "Acme"},
		AllowedURLs: []string{"https://example.com/1"},
	})
	if err == nil || !strings.Contains(err.Error(), "CITATION LEAK") {
		t.Fatalf("Expected citation leak error, got %v", err)
	}
	var leak *CitationError
	if !errors.As(err, &leak) || len(leak.Leaked) != 1 || leak.Leaked[0] != "https://elsewhere.example/story" {
		t.Errorf("Unexpected leaked links: %v", err)
	}
}

func TestOpenAIProvider_Summarize_LenientEvidence(t *testing.T) {
	server := chatServer(t, "See https://elsewhere.example/story.")
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Summarize(context.Background(), SummarizeRequest{Report: model.ControversyReport{Name: "Acme"}})
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if len(resp.CitedURLs) != 1 {
		t.Errorf("Expected the outside link to be reported, got %v", resp.CitedURLs)
	}
}

func TestNewOpenAIProvider_Defaults(t *testing.T) {
	provider, err := NewOpenAIProvider(Config{APIKey: "k"})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	if provider.config.Model != openai.GPT4oMini || provider.config.MaxTokens != 1000 || provider.config.Timeout != 30*time.Second {
		t.Errorf("Unexpected defaults: %+v", provider.config)
	}
}

func TestOpenAIProvider_ChatRequest(t *testing.T) {
	provider, err := NewOpenAIProvider(Config{APIKey: "k", Model: "gpt-4o", MaxTokens: 500})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	report := model.ControversyReport{Name: "Acme", Score: 42}
	chat := provider.chatRequest(SummarizeRequest{Report: report})
	if chat.Model != "gpt-4o" || chat.MaxTokens != 500 {
		t.Errorf("Unexpected settings: model=%s tokens=%d", chat.Model, chat.MaxTokens)
	}
	if len(chat.Messages) != 2 || chat.Messages[0].Role != openai.ChatMessageRoleSystem {
		t.Fatalf("Unexpected messages: %+v", chat.Messages)
	}
	if !strings.Contains(chat.Messages[1].Content, "Acme") {
		t.Errorf("Prompt does not mention the report name: %s", chat.Messages[1].Content)
	}

	chat = provider.chatRequest(SummarizeRequest{Report: report, Model: "other", MaxTokens: 50, Prompt: "custom"})
	if chat.Model != "other" || chat.MaxTokens != 50 || chat.Messages[1].Content != "custom" {
		t.Errorf("Overrides not applied: %+v", chat)
	}
}

func TestVerifyCitations(t *testing.T) {
	allowed := []string{"https://a.example/1", "https://b.example/2"}

	if err := verifyCitations([]string{"https://a.example/1"}, allowed); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if err := verifyCitations(nil, nil); err != nil {
		t.Errorf("Unexpected error for no citations: %v", err)
	}

	err := verifyCitations([]string{"https://x.example", "https://b.example/2", "https://y.example"}, allowed)
	var leak *CitationError
	if !errors.As(err, &leak) {
		t.Fatalf("Expected *CitationError, got %v", err)
	}
	if len(leak.Leaked) != 2 || leak.Leaked[0] != "https://x.example" || leak.Leaked[1] != "https://y.example" {
		t.Errorf("Leaked = %v", leak.Leaked)
	}
}

func TestOpenAIProvider_Summarize_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error": {"message": "Internal Server Error", "type": "server_error"}}`))
			},
		},
		{
			name: "rate limit",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error": {"message": "Rate limit exceeded", "type": "rate_limit_error"}}`))
			},
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(`{malformed json`))
			},
		},
		{
			name: "no choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{ID: "empty"})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			provider, err := NewOpenAIProvider(Config{
				APIKey:  "test-key",
				BaseURL: server.URL,
				Timeout: 5 * time.Second,
			})
			if err != nil {
				t.Fatalf("Failed to create provider: %v", err)
			}

			if _, err := provider.Summarize(context.Background(), SummarizeRequest{Report: model.ControversyReport{Name: "Acme"}}); err == nil {
				t.Fatal("Expected error, got nil")
			}
		})
	}
}

func TestOpenAIProvider_Summarize_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if _, err := provider.Summarize(context.Background(), SummarizeRequest{Report: model.ControversyReport{Name: "Acme"}}); err == nil {
		t.Fatal("Expected timeout error, got nil")
	}
}

func TestOpenAIProvider_IsAvailable(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if healthy.Load() && r.URL.Path == "/models/gpt-4o-mini" {
			_, _ = w.Write([]byte(`{"id": "gpt-4o-mini", "object": "model"}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if !provider.IsAvailable(context.Background()) {
		t.Error("Expected available to be true")
	}

	healthy.Store(false)
	if provider.IsAvailable(context.Background()) {
		t.Error("Expected available to be false on error")
	}
}

func TestNewOpenAIProvider_MissingKey(t *testing.T) {
	if _, err := NewOpenAIProvider(Config{}); err == nil {
		t.Error("Expected error without API key")
	}
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(Config{})
	if err != nil || p != nil {
		t.Errorf("Expected nil provider for empty name, got %v, %v", p, err)
	}

	if _, err := NewProvider(Config{Provider: "anthropic"}); err == nil {
		t.Error("Expected error for unsupported provider")
	}

	p, err = NewProvider(Config{Provider: "OpenAI", APIKey: "k"})
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	if p.Name() != "openai" {
		t.Errorf("Expected openai, got %s", p.Name())
	}
}

func TestExtractURLs(t *testing.T) {
	got := extractURLs("See https://a.example/x. Also [story](https://b.example/y) and https://a.example/x!")
	want := []string{"https://a.example/x", "https://b.example/y"}
	if len(got) != len(want) {
		t.Fatalf("extractURLs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("extractURLs()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
