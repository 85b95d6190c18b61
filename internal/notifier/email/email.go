// Package email implements an SMTP-based email notifier
package email

import (
	"context"
	"fmt"
	"html"
	"net/smtp"
	"strings"
	"time"

	"github.com/newthinker/checksignal/internal/core"
)

// Config holds the SMTP settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Email implements the Notifier interface for SMTP email
type Email struct {
	cfg  Config
	send sendFunc
}

// New creates a new Email notifier
func New(cfg Config) (*Email, error) {
	if cfg.Host == "" || cfg.From == "" || len(cfg.To) == 0 {
		return nil, fmt.Errorf("email: host, from, and to are required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &Email{cfg: cfg, send: smtp.SendMail}, nil
}

func (e *Email) Name() string { return "email" }

func (e *Email) Send(ctx context.Context, alert core.Alert) error {
	subject := fmt.Sprintf("checksignal alert: %s %s", alert.Symbol, alert.Rule)
	return e.sendEmail(ctx, subject, e.formatAlert(alert))
}

func (e *Email) SendBatch(ctx context.Context, alerts []core.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	subject := fmt.Sprintf("checksignal digest: %d alerts", len(alerts))

	var sb strings.Builder
	sb.WriteString("<html><body>")
	sb.WriteString("<h2>checksignal alerts</h2>")
	sb.WriteString(fmt.Sprintf("<p>Generated at: %s</p>", time.Now().Format("2006-01-02 15:04:05")))
	sb.WriteString("<hr>")

	for _, alert := range alerts {
		sb.WriteString(e.formatAlertHTML(alert))
		sb.WriteString("<hr>")
	}

	sb.WriteString("</body></html>")

	return e.sendEmail(ctx, subject, sb.String())
}

func (e *Email) formatAlert(alert core.Alert) string {
	buyRange := "none"
	if alert.HasRange() {
		buyRange = fmt.Sprintf("%.2f - %.2f", alert.Lower, alert.Upper)
	}
	return fmt.Sprintf(`
checksignal alert

Symbol: %s %s
Rule: %s (%s)
Message: %s
Signal: %s
Verdict: %s
QVT: %.1f
Price: %.2f
Buy range: %s
As of: %s
`,
		alert.Symbol, alert.Name,
		alert.Rule, alert.Severity,
		alert.Message,
		alert.Signal,
		alert.Verdict,
		alert.QVT,
		alert.Price,
		buyRange,
		alert.AsOf.Format("2006-01-02"),
	)
}

func (e *Email) formatAlertHTML(alert core.Alert) string {
	color := "#28a745" // green for info
	switch alert.Severity {
	case "warning":
		color = "#fd7e14"
	case "critical":
		color = "#dc3545"
	}

	buyRange := ""
	if alert.HasRange() {
		buyRange = fmt.Sprintf("<p><strong>Buy range:</strong> %.2f - %.2f</p>", alert.Lower, alert.Upper)
	}

	return fmt.Sprintf(`
<div style="margin: 10px 0;">
  <h3 style="color: %s;">%s - %s</h3>
  <p><strong>Signal:</strong> %s</p>
  <p><strong>Verdict:</strong> %s, <strong>QVT:</strong> %.1f</p>
  <p><strong>Price:</strong> %.2f</p>
  %s
  <p><small>%s, as of %s</small></p>
</div>
`,
		color,
		html.EscapeString(alert.Symbol),
		html.EscapeString(alert.Message),
		html.EscapeString(alert.Signal),
		html.EscapeString(alert.Verdict),
		alert.QVT,
		alert.Price,
		buyRange,
		html.EscapeString(alert.Rule),
		alert.AsOf.Format("2006-01-02"),
	)
}

func (e *Email) sendEmail(ctx context.Context, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", e.cfg.Host, e.cfg.Port)

	var auth smtp.Auth
	if e.cfg.Username != "" {
		auth = smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Host)
	}

	contentType := "text/plain"
	if strings.Contains(body, "<html>") {
		contentType = "text/html"
	}

	msg := fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: %s; charset=UTF-8\r\n"+
		"\r\n"+
		"%s",
		e.cfg.From,
		strings.Join(e.cfg.To, ","),
		subject,
		contentType,
		body,
	)

	if err := e.send(addr, auth, e.cfg.From, e.cfg.To, []byte(msg)); err != nil {
		return fmt.Errorf("email: %w", err)
	}
	return nil
}
