// Package backofftest provides a deterministic clock for retry and polling tests.
package backofftest

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Epoch is the instant every ManualClock starts at.
var Epoch = time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)

// ManualClock advances instantly on Sleep and records each requested wait.
type ManualClock struct {
	mock *clock.Mock

	mu      sync.Mutex
	sleeps  []time.Duration
	onSleep func(time.Duration)
}

func NewManualClock() *ManualClock {
	m := clock.NewMock()
	m.Set(Epoch)
	return &ManualClock{mock: m}
}

func (c *ManualClock) Now() time.Time {
	return c.mock.Now()
}

func (c *ManualClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.sleeps = append(c.sleeps, d)
	hook := c.onSleep
	c.mu.Unlock()
	if hook != nil {
		hook(d)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mock.Add(d)
	return nil
}

// OnSleep installs a hook that runs before the clock advances.
func (c *ManualClock) OnSleep(fn func(time.Duration)) {
	c.mu.Lock()
	c.onSleep = fn
	c.mu.Unlock()
}

// Advance moves the clock forward without recording a sleep.
func (c *ManualClock) Advance(d time.Duration) {
	c.mock.Add(d)
}

// Sleeps returns a copy of every recorded wait in order.
func (c *ManualClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.sleeps))
	copy(out, c.sleeps)
	return out
}

// Elapsed reports how far the clock has moved since Epoch.
func (c *ManualClock) Elapsed() time.Duration {
	return c.mock.Now().Sub(Epoch)
}

func (c *ManualClock) Mock() *clock.Mock {
	return c.mock
}
