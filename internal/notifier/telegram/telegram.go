package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/newthinker/checksignal/internal/core"
)

const defaultBaseURL = "https://api.telegram.org"

// Telegram sends alerts through the Telegram Bot API
type Telegram struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
}

// New creates a new Telegram notifier
func New(botToken, chatID string) (*Telegram, error) {
	if botToken == "" {
		return nil, fmt.Errorf("telegram: bot_token is required")
	}
	if chatID == "" {
		return nil, fmt.Errorf("telegram: chat_id is required")
	}
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  defaultBaseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

func (t *Telegram) Name() string {
	return "telegram"
}

func (t *Telegram) Send(ctx context.Context, alert core.Alert) error {
	return t.sendMessage(ctx, t.formatAlert(alert))
}

func (t *Telegram) SendBatch(ctx context.Context, alerts []core.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📊 *%d checksignal alerts*\n\n", len(alerts)))

	for i, alert := range alerts {
		sb.WriteString(t.formatAlert(alert))
		if i < len(alerts)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	return t.sendMessage(ctx, sb.String())
}

func (t *Telegram) formatAlert(alert core.Alert) string {
	var sb strings.Builder

	emoji := "📈"
	switch alert.Severity {
	case "critical":
		emoji = "🚨"
	case "warning":
		emoji = "⚠️"
	}

	title := alert.Symbol
	if alert.Name != "" {
		title = fmt.Sprintf("%s (%s)", alert.Symbol, alert.Name)
	}
	sb.WriteString(fmt.Sprintf("%s *%s* - %s\n", emoji, title, alert.Message))
	sb.WriteString(fmt.Sprintf("🎯 Rule: %s\n", alert.Rule))

	if alert.Signal != "" {
		sb.WriteString(fmt.Sprintf("💡 Signal: %s\n", alert.Signal))
	}
	sb.WriteString(fmt.Sprintf("📊 QVT: %.1f, verdict %s\n", alert.QVT, alert.Verdict))
	sb.WriteString(fmt.Sprintf("💰 Price: %.2f\n", alert.Price))
	if alert.HasRange() {
		sb.WriteString(fmt.Sprintf("📐 Buy range: %.2f - %.2f\n", alert.Lower, alert.Upper))
	}

	sb.WriteString(fmt.Sprintf("⏰ As of: %s", alert.AsOf.Format("2006-01-02")))

	return sb.String()
}

func (t *Telegram) sendMessage(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)

	payload := map[string]any{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var result map[string]any
		json.NewDecoder(resp.Body).Decode(&result)
		return fmt.Errorf("telegram: API error (status %d): %v", resp.StatusCode, result)
	}

	return nil
}
