package backoff

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
)

// Clock is the time source used for backoff and polling waits.
type Clock interface {
	Now() time.Time
	// Sleep waits for d or until ctx is done, returning ctx.Err() in the latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

type clockAdapter struct {
	c clock.Clock
}

// NewClock adapts a benbjohnson clock to Clock.
func NewClock(c clock.Clock) Clock {
	return &clockAdapter{c: c}
}

func SystemClock() Clock {
	return NewClock(clock.New())
}

func (a *clockAdapter) Now() time.Time {
	return a.c.Now()
}

func (a *clockAdapter) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	timer := a.c.Timer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
