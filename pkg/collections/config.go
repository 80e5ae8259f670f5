package collections

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/metric"

	"github.com/citewatch/citewatch/pkg/backoff"
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultPollInterval = 3 * time.Second
	DefaultPollTimeout  = 10 * time.Minute
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100
)

// Config holds everything a Client needs. Zero durations fall back to the defaults above.
type Config struct {
	BaseURL string `validate:"required,url"`
	// Tokens is optional; without it requests carry no Authorization header.
	Tokens    TokenProvider `validate:"-"`
	Timeout   time.Duration `validate:"gte=0"`
	UserAgent string
	// Retry drives the onboarding trigger. A zero policy means backoff.OnboardingPolicy.
	Retry        backoff.Policy `validate:"-"`
	PollInterval time.Duration  `validate:"gte=0"`
	PollTimeout  time.Duration  `validate:"gte=0"`
	// RateLimit caps requests per second; zero disables limiting.
	RateLimit  float64       `validate:"gte=0"`
	RateBurst  int           `validate:"gte=0"`
	Clock      backoff.Clock `validate:"-"`
	Meter      metric.Meter  `validate:"-"`
	HTTPClient *http.Client  `validate:"-"`
}

func (c *Config) applyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.PollTimeout == 0 {
		c.PollTimeout = DefaultPollTimeout
	}
	if c.Retry.InitialDelay == 0 && c.Retry.MaxDelay == 0 && c.Retry.BackoffMultiplier == 0 {
		onboarding := backoff.OnboardingPolicy()
		onboarding.OnRetry = c.Retry.OnRetry
		if c.Retry.MaxRetries > 0 {
			onboarding.MaxRetries = c.Retry.MaxRetries
		}
		c.Retry = onboarding
	}
	if c.RateLimit > 0 && c.RateBurst == 0 {
		c.RateBurst = 1
	}
	if c.Clock == nil {
		c.Clock = backoff.SystemClock()
	}
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid client config: %w", err)
	}
	if err := c.Retry.Validate(); err != nil {
		return err
	}
	return nil
}
