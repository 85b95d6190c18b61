package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/newthinker/checksignal/internal/alert"
	"github.com/newthinker/checksignal/internal/buyrange"
	"github.com/newthinker/checksignal/internal/core"
	"github.com/newthinker/checksignal/internal/qvt"
	"github.com/newthinker/checksignal/internal/scoring"
	"github.com/newthinker/checksignal/internal/signal"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig              `mapstructure:"server"`
	Log          LogConfig                 `mapstructure:"log"`
	Source       SourceConfig              `mapstructure:"source"`
	Archive      ArchiveConfig             `mapstructure:"archive"`
	Fundamentals FundamentalsConfig        `mapstructure:"fundamentals"`
	Scoring      ScoringConfig             `mapstructure:"scoring"`
	Sectors      []SectorConfig            `mapstructure:"sectors"`
	Names        []NameConfig              `mapstructure:"names"`
	LLM          LLMConfig                 `mapstructure:"llm"`
	Metrics      MetricsConfig             `mapstructure:"metrics"`
	Schedule     ScheduleConfig            `mapstructure:"schedule"`
	Notifiers    map[string]NotifierConfig `mapstructure:"notifiers"`
	Alerts       AlertsConfig              `mapstructure:"alerts"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	APIKey       string        `mapstructure:"api_key"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// LogConfig selects the logger flavour.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// SourceConfig selects where price history comes from.
type SourceConfig struct {
	Provider    string        `mapstructure:"provider"` // "yahoo", "eastmoney" or "archive"
	HistoryDays int           `mapstructure:"history_days"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// ArchiveConfig locates the CSV price archive.
type ArchiveConfig struct {
	Type string   `mapstructure:"type"` // "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// FundamentalsConfig selects the fundamentals provider.
type FundamentalsConfig struct {
	Provider string        `mapstructure:"provider"` // "alphavantage", "lixinger" or "none"
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// ScoringConfig holds the scoring tunables.
type ScoringConfig struct {
	FlatTolerance     float64     `mapstructure:"flat_tolerance"`
	ZoneGate          int         `mapstructure:"zone_gate"`
	SlopeMax          float64     `mapstructure:"slope_max"`
	OverboughtWarning int         `mapstructure:"overbought_warning"`
	Weights           qvt.Weights `mapstructure:"weights"`
}

// Params converts the section into engine tunables.
func (s ScoringConfig) Params() scoring.Params {
	return scoring.Params{
		Signal: signal.Params{OverboughtWarning: s.OverboughtWarning},
		Range: buyrange.Params{
			FlatTolerance: s.FlatTolerance,
			ZoneGate:      s.ZoneGate,
			SlopeMax:      s.SlopeMax,
		},
		Weights: s.Weights,
	}
}

// SectorConfig is one sector benchmark.
type SectorConfig struct {
	Name   string  `mapstructure:"name"`
	ROEPct float64 `mapstructure:"roe_pct"`
	ROAPct float64 `mapstructure:"roa_pct"`
}

// NameConfig maps a ticker to its display name and sector.
type NameConfig struct {
	Symbol string `mapstructure:"symbol"`
	Name   string `mapstructure:"name"`
	Sector string `mapstructure:"sector"`
}

type LLMConfig struct {
	Provider string       `mapstructure:"provider"`
	Claude   ClaudeConfig `mapstructure:"claude"`
	OpenAI   OpenAIConfig `mapstructure:"openai"`
	Ollama   OllamaConfig `mapstructure:"ollama"`
}

type ClaudeConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// OpenAIConfig also serves OpenAI-compatible servers through BaseURL.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type OllamaConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

// ScheduleConfig holds the cron schedules used by serve. Empty disables.
type ScheduleConfig struct {
	Scan        string `mapstructure:"scan"`
	ScanExplain bool   `mapstructure:"scan_explain"`
}

// NotifierConfig configures one notifier, keyed by "telegram", "email"
// or "webhook".
type NotifierConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	URL      string `mapstructure:"url"`
	// Email notifier fields
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
	// Webhook notifier fields
	Headers map[string]string `mapstructure:"headers"`
}

// AlertsConfig holds the rules evaluated after each scan.
type AlertsConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Cooldown time.Duration `mapstructure:"cooldown"`
	Rules    []alert.Rule  `mapstructure:"rules"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file on top of Defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	params := scoring.DefaultParams()
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		Source: SourceConfig{
			Provider:    "yahoo",
			HistoryDays: 400,
			Timeout:     30 * time.Second,
		},
		Archive: ArchiveConfig{
			Type: "localfs",
			Path: "data/archive",
		},
		Fundamentals: FundamentalsConfig{
			Provider: "none",
			Timeout:  30 * time.Second,
		},
		Scoring: ScoringConfig{
			FlatTolerance:     params.Range.FlatTolerance,
			ZoneGate:          params.Range.ZoneGate,
			SlopeMax:          params.Range.SlopeMax,
			OverboughtWarning: params.Signal.OverboughtWarning,
			Weights:           params.Weights,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Alerts: AlertsConfig{
			Cooldown: alert.DefaultCooldown,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	switch c.Source.Provider {
	case "yahoo", "eastmoney":
	case "archive":
		if err := c.validateArchive(); err != nil {
			return err
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown source provider %q", c.Source.Provider))
	}
	if c.Source.HistoryDays < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("history_days cannot be negative, got %d", c.Source.HistoryDays))
	}

	switch c.Fundamentals.Provider {
	case "", "none":
	case "alphavantage", "lixinger":
		if c.Fundamentals.APIKey == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("fundamentals api_key required when provider is %s", c.Fundamentals.Provider))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown fundamentals provider %q", c.Fundamentals.Provider))
	}

	if err := c.Scoring.validate(); err != nil {
		return err
	}

	for _, s := range c.Sectors {
		if s.Name == "" || s.ROEPct <= 0 || s.ROAPct <= 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("sector %q needs a name and positive roe_pct/roa_pct", s.Name))
		}
	}
	for _, n := range c.Names {
		if n.Symbol == "" {
			return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("names entry without symbol"))
		}
	}

	if c.Schedule.Scan != "" {
		if _, err := cron.ParseStandard(c.Schedule.Scan); err != nil {
			return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("schedule.scan: %w", err))
		}
	}

	if err := c.validateAlerts(); err != nil {
		return err
	}

	// LLM validation - if provider set, check config exists
	if c.LLM.Provider != "" {
		switch c.LLM.Provider {
		case "claude":
			if c.LLM.Claude.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("claude api_key required when provider is claude"))
			}
		case "openai":
			if c.LLM.OpenAI.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("openai api_key required when provider is openai"))
			}
		case "ollama":
			if c.LLM.Ollama.Endpoint == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("ollama endpoint required when provider is ollama"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown llm provider %q", c.LLM.Provider))
		}
	}

	return nil
}

func (c *Config) validateAlerts() error {
	for name, n := range c.Notifiers {
		if !n.Enabled {
			continue
		}
		switch name {
		case "telegram":
			if n.BotToken == "" || n.ChatID == "" {
				return core.WrapError(core.ErrConfigMissing, fmt.Errorf("telegram bot_token and chat_id required"))
			}
		case "email":
			if n.Host == "" || n.From == "" || len(n.To) == 0 {
				return core.WrapError(core.ErrConfigMissing, fmt.Errorf("email host, from and to required"))
			}
		case "webhook":
			if n.URL == "" {
				return core.WrapError(core.ErrConfigMissing, fmt.Errorf("webhook url required"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown notifier %q", name))
		}
	}

	if !c.Alerts.Enabled {
		return nil
	}
	if c.Alerts.Cooldown < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("alerts cooldown cannot be negative, got %s", c.Alerts.Cooldown))
	}
	for i := range c.Alerts.Rules {
		if err := c.Alerts.Rules[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateArchive() error {
	switch c.Archive.Type {
	case "localfs":
		if c.Archive.Path == "" {
			return core.WrapError(core.ErrConfigMissing, fmt.Errorf("archive path required for localfs"))
		}
	case "s3":
		if c.Archive.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing, fmt.Errorf("archive s3 bucket required"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown archive type %q", c.Archive.Type))
	}
	return nil
}

func (s ScoringConfig) validate() error {
	if s.FlatTolerance < 0 || s.FlatTolerance > 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("flat_tolerance must be between 0 and 1, got %f", s.FlatTolerance))
	}
	if s.ZoneGate < 0 || s.ZoneGate > 100 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("zone_gate must be between 0 and 100, got %d", s.ZoneGate))
	}
	if s.OverboughtWarning < 0 || s.OverboughtWarning > 100 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("overbought_warning must be between 0 and 100, got %d", s.OverboughtWarning))
	}
	if s.SlopeMax < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("slope_max cannot be negative, got %f", s.SlopeMax))
	}
	w := s.Weights
	if w.Q < 0 || w.V < 0 || w.T < 0 || w.Q+w.V+w.T == 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("qvt weights must be non-negative and not all zero"))
	}
	return nil
}
