package alert

import (
	"context"
	"sync"
	"time"

	"github.com/newthinker/checksignal/internal/core"
	"github.com/newthinker/checksignal/internal/metrics"
	"github.com/newthinker/checksignal/internal/scoring"
	"go.uber.org/zap"
)

// DefaultCooldown keeps a rule from firing twice for one symbol within a day.
const DefaultCooldown = 24 * time.Hour

// Dispatcher delivers a batch of alerts. *notifier.Registry satisfies it.
type Dispatcher interface {
	Names() []string
	NotifyAllBatch(ctx context.Context, alerts []core.Alert) map[string]error
}

// Evaluator checks rules against reports and sends what fires.
type Evaluator struct {
	rules      []Rule
	dispatcher Dispatcher
	cooldown   time.Duration
	metrics    *metrics.Registry
	logger     *zap.Logger

	// last fire time per rule and symbol
	lastFired map[string]time.Time

	now func() time.Time

	mu sync.Mutex
}

// NewEvaluator creates an evaluator. dispatcher may be nil, in which case
// alerts are only returned.
func NewEvaluator(rules []Rule, dispatcher Dispatcher, logger ...*zap.Logger) *Evaluator {
	log := zap.NewNop()
	if len(logger) > 0 && logger[0] != nil {
		log = logger[0]
	}
	return &Evaluator{
		rules:      rules,
		dispatcher: dispatcher,
		cooldown:   DefaultCooldown,
		logger:     log,
		lastFired:  make(map[string]time.Time),
		now:        time.Now,
	}
}

// SetCooldown sets the minimum gap between two firings of a rule for the
// same symbol. Zero disables the cooldown.
func (e *Evaluator) SetCooldown(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if d >= 0 {
		e.cooldown = d
	}
}

// SetMetrics enables alert and delivery counters.
func (e *Evaluator) SetMetrics(m *metrics.Registry) {
	e.metrics = m
}

// Rules returns the configured rules.
func (e *Evaluator) Rules() []Rule {
	return e.rules
}

// Evaluate runs every rule over every report, dispatches the alerts that
// fired as one batch and returns them. Nil reports are skipped.
func (e *Evaluator) Evaluate(ctx context.Context, reports []*scoring.Report) []core.Alert {
	alerts := e.collect(reports)
	if len(alerts) == 0 || e.dispatcher == nil {
		return alerts
	}

	failed := e.dispatcher.NotifyAllBatch(ctx, alerts)
	for name, err := range failed {
		e.logger.Warn("alert delivery failed",
			zap.String("notifier", name),
			zap.Int("alerts", len(alerts)),
			zap.Error(err),
		)
	}
	if e.metrics != nil {
		for _, name := range e.dispatcher.Names() {
			status := "ok"
			if _, ok := failed[name]; ok {
				status = "error"
			}
			e.metrics.RecordNotification(name, status)
		}
		for _, a := range alerts {
			e.metrics.RecordAlert(a.Rule, a.Severity)
		}
	}
	return alerts
}

func (e *Evaluator) collect(reports []*scoring.Report) []core.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	var alerts []core.Alert
	for _, r := range reports {
		if r == nil {
			continue
		}
		values := Values(r)
		for i := range e.rules {
			rule := &e.rules[i]
			if !rule.Evaluate(values) {
				continue
			}

			key := rule.Name + "|" + r.Symbol
			if last, ok := e.lastFired[key]; ok && now.Sub(last) < e.cooldown {
				e.logger.Debug("alert in cooldown", zap.String("rule", rule.Name), zap.String("symbol", r.Symbol))
				continue
			}
			e.lastFired[key] = now

			alerts = append(alerts, newAlert(rule, r, now))
			e.logger.Info("alert fired",
				zap.String("rule", rule.Name),
				zap.String("symbol", r.Symbol),
				zap.String("severity", rule.Severity),
			)
		}
	}
	return alerts
}

func newAlert(rule *Rule, r *scoring.Report, now time.Time) core.Alert {
	severity := rule.Severity
	if severity == "" {
		severity = "info"
	}
	active := r.BuyRange.ActiveAssessment()
	a := core.Alert{
		Rule:     rule.Name,
		Severity: severity,
		Message:  rule.Message,
		Symbol:   r.Symbol,
		Name:     r.Name,
		Signal:   r.Signal.Label,
		Verdict:  string(active.Verdict),
		Price:    r.Indicators.Price,
		QVT:      r.QVT.Effective(),
		AsOf:     r.AsOf,
		FiredAt:  now.UTC(),
	}
	if active.Range != nil {
		a.Lower = active.Range.Lower
		a.Upper = active.Range.Upper
	}
	return a
}
