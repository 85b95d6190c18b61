package factory

import (
	"errors"
	"testing"

	"github.com/newthinker/checksignal/internal/config"
	"github.com/newthinker/checksignal/internal/core"
)

func TestNew_Providers(t *testing.T) {
	tests := []struct {
		cfg  config.LLMConfig
		want string
	}{
		{config.LLMConfig{Provider: "claude", Claude: config.ClaudeConfig{APIKey: "test-key", Model: "claude-3-5-haiku-latest"}}, "claude"},
		{config.LLMConfig{Provider: "openai", OpenAI: config.OpenAIConfig{APIKey: "test-key", Model: "gpt-4o-mini"}}, "openai"},
		{config.LLMConfig{Provider: "ollama", Ollama: config.OllamaConfig{Endpoint: "http://localhost:11434", Model: "llama3"}}, "ollama"},
	}

	for _, tc := range tests {
		p, err := New(tc.cfg)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.want, err)
		}
		if p.Name() != tc.want {
			t.Errorf("expected %s provider, got %s", tc.want, p.Name())
		}
	}
}

func TestNew_Unknown(t *testing.T) {
	_, err := New(config.LLMConfig{Provider: "unknown"})
	if !errors.Is(err, core.ErrConfigInvalid) {
		t.Errorf("expected CONFIG_INVALID, got %v", err)
	}
}

func TestNew_ClaudeMissingKey(t *testing.T) {
	p, err := New(config.LLMConfig{Provider: "claude"})
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
	if p != nil {
		t.Error("failed construction must return a nil provider")
	}
}
