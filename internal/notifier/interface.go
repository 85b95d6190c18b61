// Package notifier delivers alerts raised on scored reports.
package notifier

import (
	"context"

	"github.com/newthinker/checksignal/internal/core"
)

// Notifier defines the interface for alert delivery
type Notifier interface {
	// Name returns the unique identifier for this notifier
	Name() string

	// Send delivers a single alert
	Send(ctx context.Context, alert core.Alert) error

	// SendBatch delivers several alerts in one message
	SendBatch(ctx context.Context, alerts []core.Alert) error
}
