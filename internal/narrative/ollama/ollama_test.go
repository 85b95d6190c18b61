package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/newthinker/checksignal/internal/narrative"
)

func TestProvider_ImplementsInterface(t *testing.T) {
	var _ narrative.Provider = (*Provider)(nil)
}

func TestNew_Defaults(t *testing.T) {
	p, err := New("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.endpoint != defaultEndpoint {
		t.Errorf("expected default endpoint %s, got %s", defaultEndpoint, p.endpoint)
	}
	if p.model != defaultModel {
		t.Errorf("expected default model %s, got %s", defaultModel, p.model)
	}
}

func TestNew_CustomValues(t *testing.T) {
	p, err := New("http://custom:8080/", "llama3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.endpoint != "http://custom:8080" {
		t.Errorf("expected trailing slash trimmed, got %s", p.endpoint)
	}
	if p.model != "llama3" {
		t.Errorf("expected custom model, got %s", p.model)
	}
}

func TestProvider_Chat(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Write([]byte(`{"model":"llama3","message":{"role":"assistant","content":"Oversold bounce candidate."},"done":true,"done_reason":"stop","prompt_eval_count":50,"eval_count":6}`))
	}))
	defer srv.Close()

	p, _ := New(srv.URL, "llama3")
	resp, err := p.Chat(context.Background(), narrative.ChatRequest{
		SystemPrompt: "explain",
		Messages:     []narrative.Message{{Role: "user", Content: "report"}},
		MaxTokens:    300,
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if resp.Content != "Oversold bounce candidate." {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.Usage.InputTokens != 50 || resp.Usage.OutputTokens != 6 {
		t.Errorf("usage = %+v", resp.Usage)
	}
	if got.Stream {
		t.Error("expected a non-streaming request")
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" {
		t.Errorf("unexpected messages: %+v", got.Messages)
	}
	if got.Options.NumPredict != 300 {
		t.Errorf("num_predict = %d", got.Options.NumPredict)
	}
}

func TestProvider_ChatStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p, _ := New(srv.URL, "")
	if _, err := p.Chat(context.Background(), narrative.ChatRequest{}); err == nil {
		t.Error("expected error for non-200 status")
	}
}
