package factory

import (
	"fmt"

	"github.com/newthinker/checksignal/internal/config"
	"github.com/newthinker/checksignal/internal/core"
	"github.com/newthinker/checksignal/internal/narrative"
	"github.com/newthinker/checksignal/internal/narrative/claude"
	"github.com/newthinker/checksignal/internal/narrative/ollama"
	"github.com/newthinker/checksignal/internal/narrative/openai"
)

// New creates a chat provider based on configuration.
func New(cfg config.LLMConfig) (narrative.Provider, error) {
	var (
		p   narrative.Provider
		err error
	)
	switch cfg.Provider {
	case "claude":
		var c *claude.Provider
		if c, err = claude.New(cfg.Claude.APIKey, cfg.Claude.Model, cfg.Claude.BaseURL); err == nil {
			p = c
		}
	case "openai":
		var o *openai.Provider
		if o, err = openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL); err == nil {
			p = o
		}
	case "ollama":
		var o *ollama.Provider
		if o, err = ollama.New(cfg.Ollama.Endpoint, cfg.Ollama.Model); err == nil {
			p = o
		}
	default:
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown LLM provider: %q", cfg.Provider))
	}
	if err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("%s: %w", cfg.Provider, err))
	}
	return p, nil
}
