package backoff

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	DefaultMaxRetries        = 5
	DefaultInitialDelay      = time.Second
	DefaultMaxDelay          = 30 * time.Second
	DefaultBackoffMultiplier = 2.0
	// OnboardingInitialDelay gives a freshly provisioned workspace more time to come up.
	OnboardingInitialDelay = 2 * time.Second
)

// Policy configures how a 503-aware operation is retried.
type Policy struct {
	MaxRetries        int           `koanf:"max_retries"        json:"max_retries"        validate:"min=0"`
	InitialDelay      time.Duration `koanf:"initial_delay"      json:"initial_delay"      validate:"gt=0"`
	MaxDelay          time.Duration `koanf:"max_delay"          json:"max_delay"          validate:"gt=0"`
	BackoffMultiplier float64       `koanf:"backoff_multiplier" json:"backoff_multiplier" validate:"gte=1"`

	// Clock defaults to SystemClock when nil.
	Clock Clock `koanf:"-" json:"-"`
	// Retryable reports whether a failed attempt may be retried. Nil retries
	// every error. 503 responses are always retried.
	Retryable func(err error) bool `koanf:"-" json:"-"`
	// OnRetry observes every scheduled retry. It must not block.
	OnRetry func(attempt int, delay time.Duration, cause error) `koanf:"-" json:"-"`
}

func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:        DefaultMaxRetries,
		InitialDelay:      DefaultInitialDelay,
		MaxDelay:          DefaultMaxDelay,
		BackoffMultiplier: DefaultBackoffMultiplier,
	}
}

// OnboardingPolicy is DefaultPolicy with a longer first wait.
func OnboardingPolicy() Policy {
	p := DefaultPolicy()
	p.InitialDelay = OnboardingInitialDelay
	return p
}

func (p Policy) Validate() error {
	var errs []error
	if p.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("max retries must be non-negative, got %d", p.MaxRetries))
	}
	if p.InitialDelay <= 0 {
		errs = append(errs, fmt.Errorf("initial delay must be positive, got %s", p.InitialDelay))
	}
	if p.MaxDelay <= 0 {
		errs = append(errs, fmt.Errorf("max delay must be positive, got %s", p.MaxDelay))
	} else if p.MaxDelay < p.InitialDelay {
		errs = append(errs, fmt.Errorf("max delay %s is below initial delay %s", p.MaxDelay, p.InitialDelay))
	}
	if math.IsNaN(p.BackoffMultiplier) || p.BackoffMultiplier < 1 {
		errs = append(errs, fmt.Errorf("backoff multiplier must be >= 1, got %v", p.BackoffMultiplier))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid retry policy: %w", errors.Join(errs...))
	}
	return nil
}

// Schedule returns a fresh delay sequence: InitialDelay growing by
// BackoffMultiplier, capped at MaxDelay, stopping after MaxRetries values.
func (p Policy) Schedule() retry.Backoff {
	next := p.InitialDelay
	grow := retry.BackoffFunc(func() (time.Duration, bool) {
		current := next
		scaled := float64(next) * p.BackoffMultiplier
		if scaled >= float64(p.MaxDelay) || scaled >= math.MaxInt64 {
			next = p.MaxDelay
		} else {
			next = time.Duration(scaled)
		}
		return current, false
	})
	return retry.WithMaxRetries(uint64(p.MaxRetries), retry.WithCappedDuration(p.MaxDelay, grow))
}

// Delays lists the waits Schedule would produce.
func (p Policy) Delays() []time.Duration {
	delays := make([]time.Duration, 0, p.MaxRetries)
	schedule := p.Schedule()
	for {
		d, stop := schedule.Next()
		if stop {
			return delays
		}
		delays = append(delays, d)
	}
}

func (p Policy) clock() Clock {
	if p.Clock == nil {
		return SystemClock()
	}
	return p.Clock
}
