package narrative

import (
	"context"
	"fmt"
	"strings"

	"github.com/newthinker/checksignal/internal/core"
	"github.com/newthinker/checksignal/internal/scoring"
	"go.uber.org/zap"
)

const (
	defaultMaxTokens   = 600
	defaultTemperature = 0.3
)

// Narrator explains reports through a Provider.
type Narrator struct {
	provider Provider
	logger   *zap.Logger
}

// New creates a narrator backed by p.
func New(p Provider, logger ...*zap.Logger) *Narrator {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Narrator{provider: p, logger: l}
}

// ProviderName returns the name of the backing provider.
func (n *Narrator) ProviderName() string {
	return n.provider.Name()
}

// Explain returns a commentary on r. Failures carry core.ErrNarrativeFailed.
func (n *Narrator) Explain(ctx context.Context, r *scoring.Report) (string, error) {
	if r == nil {
		return "", core.WrapError(core.ErrNarrativeFailed, fmt.Errorf("nil report"))
	}

	resp, err := n.provider.Chat(ctx, ChatRequest{
		SystemPrompt: systemPrompt,
		Messages:     []Message{{Role: "user", Content: BuildPrompt(r)}},
		MaxTokens:    defaultMaxTokens,
		Temperature:  defaultTemperature,
	})
	if err != nil {
		return "", core.WrapError(core.ErrNarrativeFailed, err)
	}

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", core.WrapError(core.ErrNarrativeFailed,
			fmt.Errorf("%s returned an empty reply (finish reason %q)", n.provider.Name(), resp.FinishReason))
	}

	n.logger.Debug("narrative generated",
		zap.String("symbol", r.Symbol),
		zap.String("provider", n.provider.Name()),
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
	)
	return text, nil
}
