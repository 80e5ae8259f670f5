package config

import (
	"context"
	"encoding/json"
	"time"

	"github.com/citewatch/citewatch/pkg/backoff"
	"github.com/citewatch/citewatch/pkg/collections"
)

const (
	DefaultBaseURL     = "http://localhost:8000"
	DefaultMetricsAddr = "127.0.0.1:9464"

	FormatAuto = "auto"
	FormatJSON = "json"
	FormatTUI  = "tui"
)

// Config is the complete citewatch configuration.
type Config struct {
	API        APIConfig        `koanf:"api"        json:"api"`
	Retry      RetryConfig      `koanf:"retry"      json:"retry"`
	Poll       PollConfig       `koanf:"poll"       json:"poll"`
	Runtime    RuntimeConfig    `koanf:"runtime"    json:"runtime"`
	CLI        CLIConfig        `koanf:"cli"        json:"cli"`
	Monitoring MonitoringConfig `koanf:"monitoring" json:"monitoring"`
}

// APIConfig describes how to reach the analytics backend.
type APIConfig struct {
	BaseURL   string          `koanf:"base_url"   json:"base_url"   env:"CITEWATCH_API_URL"     validate:"required,url"`
	Token     SensitiveString `koanf:"token"      json:"token"      env:"CITEWATCH_API_TOKEN"   sensitive:"true"`
	TokenFile string          `koanf:"token_file" json:"token_file" env:"CITEWATCH_TOKEN_FILE"`
	Timeout   time.Duration   `koanf:"timeout"    json:"timeout"    env:"CITEWATCH_API_TIMEOUT" validate:"gt=0"`
	UserAgent string          `koanf:"user_agent" json:"user_agent" env:"CITEWATCH_USER_AGENT"`
	RateLimit float64         `koanf:"rate_limit" json:"rate_limit" env:"CITEWATCH_RATE_LIMIT"  validate:"gte=0"`
	RateBurst int             `koanf:"rate_burst" json:"rate_burst" env:"CITEWATCH_RATE_BURST"  validate:"gte=0"`
}

// RetryConfig drives the onboarding trigger backoff.
type RetryConfig struct {
	MaxRetries        int           `koanf:"max_retries"        json:"max_retries"        env:"CITEWATCH_RETRY_MAX_RETRIES"        validate:"min=0,max=20"`
	InitialDelay      time.Duration `koanf:"initial_delay"      json:"initial_delay"      env:"CITEWATCH_RETRY_INITIAL_DELAY"      validate:"gt=0"`
	MaxDelay          time.Duration `koanf:"max_delay"          json:"max_delay"          env:"CITEWATCH_RETRY_MAX_DELAY"          validate:"gt=0"`
	BackoffMultiplier float64       `koanf:"backoff_multiplier" json:"backoff_multiplier" env:"CITEWATCH_RETRY_BACKOFF_MULTIPLIER" validate:"gte=1"`
}

func (r RetryConfig) Policy() backoff.Policy {
	return backoff.Policy{
		MaxRetries:        r.MaxRetries,
		InitialDelay:      r.InitialDelay,
		MaxDelay:          r.MaxDelay,
		BackoffMultiplier: r.BackoffMultiplier,
	}
}

type PollConfig struct {
	Interval time.Duration `koanf:"interval" json:"interval" env:"CITEWATCH_POLL_INTERVAL" validate:"gt=0"`
	Timeout  time.Duration `koanf:"timeout"  json:"timeout"  env:"CITEWATCH_POLL_TIMEOUT"  validate:"gt=0"`
}

type RuntimeConfig struct {
	LogLevel  string `koanf:"log_level"  json:"log_level"  env:"CITEWATCH_LOG_LEVEL"  validate:"oneof=debug info warn error disabled"`
	LogJSON   bool   `koanf:"log_json"   json:"log_json"   env:"CITEWATCH_LOG_JSON"`
	LogSource bool   `koanf:"log_source" json:"log_source" env:"CITEWATCH_LOG_SOURCE"`
}

type CLIConfig struct {
	Format string `koanf:"format" json:"format" env:"CITEWATCH_FORMAT" validate:"oneof=auto json tui"`
}

type MonitoringConfig struct {
	Enabled bool   `koanf:"enabled" json:"enabled" env:"CITEWATCH_METRICS_ENABLED"`
	Addr    string `koanf:"addr"    json:"addr"    env:"CITEWATCH_METRICS_ADDR"    validate:"required_if=Enabled true"`
	Path    string `koanf:"path"    json:"path"    env:"CITEWATCH_METRICS_PATH"    validate:"startswith=/"`
}

// Default returns the built-in configuration every load starts from.
func Default() *Config {
	onboarding := backoff.OnboardingPolicy()
	return &Config{
		API: APIConfig{
			BaseURL: DefaultBaseURL,
			Timeout: collections.DefaultTimeout,
		},
		Retry: RetryConfig{
			MaxRetries:        onboarding.MaxRetries,
			InitialDelay:      onboarding.InitialDelay,
			MaxDelay:          onboarding.MaxDelay,
			BackoffMultiplier: onboarding.BackoffMultiplier,
		},
		Poll: PollConfig{
			Interval: collections.DefaultPollInterval,
			Timeout:  collections.DefaultPollTimeout,
		},
		Runtime: RuntimeConfig{
			LogLevel: "info",
		},
		CLI: CLIConfig{
			Format: FormatAuto,
		},
		Monitoring: MonitoringConfig{
			Addr: DefaultMetricsAddr,
			Path: "/metrics",
		},
	}
}

// Service loads and validates configuration.
type Service interface {
	Load(ctx context.Context, sources ...Source) (*Config, error)
	Validate(config *Config) error
	GetSource(key string) SourceType
}

// Source provides one layer of configuration values.
type Source interface {
	Load() (map[string]any, error)
	Type() SourceType
}

type SourceType string

const (
	SourceDefault SourceType = "default"
	SourceYAML    SourceType = "yaml"
	SourceEnv     SourceType = "env"
	SourceCLI     SourceType = "cli"
)

// Metadata records which source supplied each key.
type Metadata struct {
	Sources  map[string]SourceType
	LoadedAt time.Time
}

const redacted = "[REDACTED]"

// SensitiveString hides its value from logs and JSON output.
type SensitiveString string

func (s SensitiveString) String() string {
	if s == "" {
		return ""
	}
	return redacted
}

func (s SensitiveString) Value() string {
	return string(s)
}

func (s SensitiveString) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SensitiveString) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = SensitiveString(v)
	return nil
}
