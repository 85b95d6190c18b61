package notifier

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/newthinker/checksignal/internal/core"
)

// Registry manages notifier instances
type Registry struct {
	mu        sync.RWMutex
	notifiers map[string]Notifier
}

// NewRegistry creates a new notifier registry
func NewRegistry() *Registry {
	return &Registry{
		notifiers: make(map[string]Notifier),
	}
}

// Register adds a notifier to the registry
func (r *Registry) Register(n Notifier) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := n.Name()
	if _, exists := r.notifiers[name]; exists {
		return fmt.Errorf("notifier %s already registered", name)
	}

	r.notifiers[name] = n
	return nil
}

// Get retrieves a notifier by name
func (r *Registry) Get(name string) (Notifier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, exists := r.notifiers[name]
	if !exists {
		return nil, fmt.Errorf("notifier %s not found", name)
	}
	return n, nil
}

// Names returns the registered notifier names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.notifiers))
	for name := range r.notifiers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered notifiers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.notifiers)
}

// NotifyAll sends one alert to every notifier and returns failures by name.
func (r *Registry) NotifyAll(ctx context.Context, alert core.Alert) map[string]error {
	return r.each(func(n Notifier) error { return n.Send(ctx, alert) })
}

// NotifyAllBatch sends alerts to every notifier in one message each.
func (r *Registry) NotifyAllBatch(ctx context.Context, alerts []core.Alert) map[string]error {
	if len(alerts) == 0 {
		return nil
	}
	return r.each(func(n Notifier) error { return n.SendBatch(ctx, alerts) })
}

func (r *Registry) each(send func(Notifier) error) map[string]error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	errors := make(map[string]error)
	for name, n := range r.notifiers {
		if err := send(n); err != nil {
			errors[name] = err
		}
	}
	return errors
}

// Summary is the one-line text form of an alert used by the chat notifiers.
func Summary(a core.Alert) string {
	s := fmt.Sprintf("%s: %s (%s) price %.2f, QVT %.1f, verdict %s", a.Symbol, a.Message, a.Rule, a.Price, a.QVT, a.Verdict)
	if a.HasRange() {
		s += fmt.Sprintf(", buy range %.2f-%.2f", a.Lower, a.Upper)
	}
	return s
}
