// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vindexhq/vindex/internal/scrape"
)

// Config is the top-level application configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Sources       SourcesConfig       `yaml:"sources"`
	LLM           LLMConfig           `yaml:"llm"`
	Confidence    ConfidenceConfig    `yaml:"confidence"`
	Schedule      ScheduleConfig      `yaml:"schedule"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig defines PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	PoolSize int    `yaml:"pool_size"`
}

// DSN returns a PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode,
	)
}

// SourcesConfig defines the monitored listing sources and sync behavior.
// Profiles override or extend the built-in source registry.
type SourcesConfig struct {
	Profiles    []scrape.Profile `yaml:"profiles"`
	BatchSize   int              `yaml:"batch_size"`
	Stagger     time.Duration    `yaml:"stagger"`
	CycleBudget time.Duration    `yaml:"cycle_budget"`
	RateLimit   RateLimitConfig  `yaml:"rate_limit"`
}

// Registry builds the source registry: built-in sources plus any
// configured overrides.
func (s *SourcesConfig) Registry() *scrape.Registry {
	r := scrape.DefaultRegistry()
	for _, p := range s.Profiles {
		r.Register(p)
	}
	return r
}

// RateLimitConfig defines outbound fetch rate limiting settings.
type RateLimitConfig struct {
	PerSecond  float64 `yaml:"per_second"`
	Burst      int     `yaml:"burst"`
	DailyLimit int64   `yaml:"daily_limit"`
}

// LLMConfig defines LLM backend settings for listing extraction.
type LLMConfig struct {
	Backend      string             `yaml:"backend"` // ollama, anthropic, openai_compat
	Ollama       OllamaConfig       `yaml:"ollama"`
	Anthropic    AnthropicConfig    `yaml:"anthropic"`
	OpenAICompat OpenAICompatConfig `yaml:"openai_compat"`
	Timeout      time.Duration      `yaml:"timeout"`
	// PhotoEnrichment enables the vision pass that fills attribute gaps
	// from listing photos. Requires a vision-capable model.
	PhotoEnrichment bool `yaml:"photo_enrichment"`
}

// OllamaConfig defines Ollama-specific settings.
type OllamaConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
}

// AnthropicConfig defines Anthropic API settings.
type AnthropicConfig struct {
	Model string `yaml:"model"`
}

// OpenAICompatConfig defines OpenAI-compatible endpoint settings.
type OpenAICompatConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
}

// ConfidenceConfig defines confidence scoring parameters.
type ConfidenceConfig struct {
	// BaseTrust seeds the aggregator for sources with no registry profile.
	BaseTrust float64 `yaml:"base_trust"`
	// ReviewThreshold parks extractions scoring below it for manual review.
	ReviewThreshold float64 `yaml:"review_threshold"`
}

// ScheduleConfig defines cron intervals for the background jobs.
type ScheduleConfig struct {
	SyncInterval  time.Duration `yaml:"sync_interval"`
	AuditInterval time.Duration `yaml:"audit_interval"`
	AuditBatch    int           `yaml:"audit_batch"`
}

// NotificationsConfig defines notification targets.
type NotificationsConfig struct {
	Discord DiscordConfig `yaml:"discord"`
}

// DiscordConfig defines Discord webhook settings.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyDatabaseDefaults(&cfg.Database)
	applySourcesDefaults(&cfg.Sources)
	applyLLMDefaults(&cfg.LLM)
	applyConfidenceDefaults(&cfg.Confidence)
	applyScheduleDefaults(&cfg.Schedule)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
}

func applyDatabaseDefaults(d *DatabaseConfig) {
	if d.Port == 0 {
		d.Port = 5432
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	if d.PoolSize == 0 {
		d.PoolSize = 10
	}
}

func applySourcesDefaults(s *SourcesConfig) {
	if s.BatchSize == 0 {
		s.BatchSize = 25
	}
	if s.Stagger == 0 {
		s.Stagger = 30 * time.Second
	}
	if s.CycleBudget == 0 {
		s.CycleBudget = 15 * time.Minute
	}
	applyRateLimitDefaults(&s.RateLimit)
}

func applyRateLimitDefaults(r *RateLimitConfig) {
	if r.PerSecond == 0 {
		r.PerSecond = 1.0
	}
	if r.Burst == 0 {
		r.Burst = 2
	}
	if r.DailyLimit == 0 {
		r.DailyLimit = 2000
	}
}

func applyLLMDefaults(l *LLMConfig) {
	if l.Backend == "" {
		l.Backend = "ollama"
	}
	if l.Timeout == 0 {
		l.Timeout = 30 * time.Second
	}
}

func applyConfidenceDefaults(c *ConfidenceConfig) {
	if c.BaseTrust == 0 {
		c.BaseTrust = 0.7
	}
	if c.ReviewThreshold == 0 {
		c.ReviewThreshold = 0.5
	}
}

func applyScheduleDefaults(s *ScheduleConfig) {
	if s.SyncInterval == 0 {
		s.SyncInterval = time.Hour
	}
	if s.AuditInterval == 0 {
		s.AuditInterval = 6 * time.Hour
	}
	if s.AuditBatch == 0 {
		s.AuditBatch = 20
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.Database.Host == "" {
		errs = append(errs, fmt.Errorf("database.host is required"))
	}
	if cfg.Database.Name == "" {
		errs = append(errs, fmt.Errorf("database.name is required"))
	}
	if cfg.Database.User == "" {
		errs = append(errs, fmt.Errorf("database.user is required"))
	}

	for _, p := range cfg.Sources.Profiles {
		if p.Domain == "" {
			errs = append(errs, fmt.Errorf("sources.profiles entries require a domain"))
			continue
		}
		if p.BaseTrust <= 0 || p.BaseTrust > 1 {
			errs = append(errs, fmt.Errorf(
				"sources.profiles[%s].base_trust must be in (0, 1]", p.Domain,
			))
		}
	}

	if cfg.Confidence.ReviewThreshold < 0 || cfg.Confidence.ReviewThreshold > 1 {
		errs = append(errs, fmt.Errorf("confidence.review_threshold must be in [0, 1]"))
	}

	switch cfg.LLM.Backend {
	case "ollama":
		if cfg.LLM.Ollama.Endpoint == "" {
			errs = append(
				errs,
				fmt.Errorf("llm.ollama.endpoint is required when backend is ollama"),
			)
		}
	case "anthropic":
		// API key comes from env, model must be set.
		if cfg.LLM.Anthropic.Model == "" {
			errs = append(
				errs,
				fmt.Errorf("llm.anthropic.model is required when backend is anthropic"),
			)
		}
	case "openai_compat":
		if cfg.LLM.OpenAICompat.Endpoint == "" {
			errs = append(
				errs,
				fmt.Errorf("llm.openai_compat.endpoint is required when backend is openai_compat"),
			)
		}
	default:
		errs = append(
			errs,
			fmt.Errorf(
				"llm.backend must be one of: ollama, anthropic, openai_compat (got %q)",
				cfg.LLM.Backend,
			),
		)
	}

	if cfg.Notifications.Discord.Enabled && cfg.Notifications.Discord.WebhookURL == "" {
		errs = append(errs, fmt.Errorf(
			"notifications.discord.webhook_url is required when discord is enabled",
		))
	}

	return errors.Join(errs...)
}
