package app

import (
	"fmt"
	"sort"

	"github.com/newthinker/checksignal/internal/alert"
	"github.com/newthinker/checksignal/internal/collector"
	"github.com/newthinker/checksignal/internal/collector/alphavantage"
	archivecollector "github.com/newthinker/checksignal/internal/collector/archive"
	"github.com/newthinker/checksignal/internal/collector/eastmoney"
	"github.com/newthinker/checksignal/internal/collector/lixinger"
	"github.com/newthinker/checksignal/internal/collector/yahoo"
	"github.com/newthinker/checksignal/internal/config"
	"github.com/newthinker/checksignal/internal/core"
	"github.com/newthinker/checksignal/internal/lookup"
	"github.com/newthinker/checksignal/internal/metrics"
	"github.com/newthinker/checksignal/internal/narrative"
	"github.com/newthinker/checksignal/internal/narrative/factory"
	"github.com/newthinker/checksignal/internal/notifier"
	"github.com/newthinker/checksignal/internal/notifier/email"
	"github.com/newthinker/checksignal/internal/notifier/telegram"
	"github.com/newthinker/checksignal/internal/notifier/webhook"
	"github.com/newthinker/checksignal/internal/scoring"
	"github.com/newthinker/checksignal/internal/storage/archive"
	"go.uber.org/zap"
)

// OpenArchive opens the configured archive backend.
func OpenArchive(cfg config.ArchiveConfig) (archive.Storage, error) {
	return archive.New(archive.Config{
		Type: cfg.Type,
		Path: cfg.Path,
		S3: archive.S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		},
	})
}

// Build wires an analyzer from configuration. reg may be nil.
func Build(cfg *config.Config, logger *zap.Logger, reg *metrics.Registry) (*Analyzer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	a := New(scoring.NewEngine(cfg.Scoring.Params(), logger), logger)
	a.SetHistoryDays(cfg.Source.HistoryDays)
	a.SetLookup(lookup.FromConfig(cfg))
	a.SetMetrics(reg)

	prices, err := priceCollector(cfg)
	if err != nil {
		return nil, err
	}
	a.SetPriceCollector(prices)

	fundamentals, err := fundamentalCollector(cfg.Fundamentals)
	if err != nil {
		return nil, err
	}
	if fundamentals != nil {
		a.SetFundamentalCollector(fundamentals)
	}

	if cfg.LLM.Provider != "" {
		p, err := factory.New(cfg.LLM)
		if err != nil {
			return nil, err
		}
		a.SetNarrator(narrative.New(p, logger))
	}

	logger.Debug("analyzer ready",
		zap.String("prices", prices.Name()),
		zap.String("fundamentals", cfg.Fundamentals.Provider),
		zap.String("llm", cfg.LLM.Provider),
	)
	return a, nil
}

func priceCollector(cfg *config.Config) (collector.Collector, error) {
	registry := collector.NewRegistry()
	registry.Register(yahoo.New())
	registry.Register(eastmoney.New())
	if cfg.Source.Provider == "archive" {
		s, err := OpenArchive(cfg.Archive)
		if err != nil {
			return nil, err
		}
		registry.Register(archivecollector.New(s))
	}

	c, err := registry.Lookup(cfg.Source.Provider)
	if err != nil {
		return nil, err
	}
	if err := c.Init(collector.Config{Timeout: cfg.Source.Timeout}); err != nil {
		return nil, fmt.Errorf("initializing %s: %w", c.Name(), err)
	}
	return c, nil
}

func fundamentalCollector(cfg config.FundamentalsConfig) (collector.FundamentalCollector, error) {
	if cfg.Provider == "" || cfg.Provider == "none" {
		return nil, nil
	}

	registry := collector.NewFundamentalRegistry()
	registry.Register(alphavantage.New())
	registry.Register(lixinger.New())

	c, err := registry.Lookup(cfg.Provider)
	if err != nil {
		return nil, err
	}
	if err := c.Init(collector.Config{APIKey: cfg.APIKey, Timeout: cfg.Timeout}); err != nil {
		return nil, fmt.Errorf("initializing %s: %w", c.Name(), err)
	}
	return c, nil
}

// BuildNotifiers creates a registry holding every enabled notifier.
func BuildNotifiers(cfg map[string]config.NotifierConfig) (*notifier.Registry, error) {
	names := make([]string, 0, len(cfg))
	for name := range cfg {
		names = append(names, name)
	}
	sort.Strings(names)

	registry := notifier.NewRegistry()
	for _, name := range names {
		nc := cfg[name]
		if !nc.Enabled {
			continue
		}

		var (
			n   notifier.Notifier
			err error
		)
		switch name {
		case "telegram":
			n, err = telegram.New(nc.BotToken, nc.ChatID)
		case "email":
			n, err = email.New(email.Config{
				Host:     nc.Host,
				Port:     nc.Port,
				Username: nc.Username,
				Password: nc.Password,
				From:     nc.From,
				To:       nc.To,
			})
		case "webhook":
			n, err = webhook.New(nc.URL, nc.Headers)
		default:
			err = core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown notifier %q", name))
		}
		if err != nil {
			return nil, fmt.Errorf("initializing notifier %s: %w", name, err)
		}
		if err := registry.Register(n); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// BuildAlerts wires the alert evaluator. It returns nil when alerts are
// disabled. reg may be nil.
func BuildAlerts(cfg *config.Config, logger *zap.Logger, reg *metrics.Registry) (*alert.Evaluator, error) {
	if !cfg.Alerts.Enabled {
		return nil, nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	registry, err := BuildNotifiers(cfg.Notifiers)
	if err != nil {
		return nil, err
	}
	if registry.Len() == 0 {
		logger.Warn("alerts enabled without notifiers, alerts are only recorded")
	}

	eval := alert.NewEvaluator(cfg.Alerts.Rules, registry, logger)
	eval.SetCooldown(cfg.Alerts.Cooldown)
	eval.SetMetrics(reg)

	logger.Debug("alerts ready",
		zap.Int("rules", len(cfg.Alerts.Rules)),
		zap.Strings("notifiers", registry.Names()),
	)
	return eval, nil
}
