package backoff

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
)

func TestClock_Sleep(t *testing.T) {
	t.Run("Should return once the mock clock passes the deadline", func(t *testing.T) {
		mock := clock.NewMock()
		clk := NewClock(mock)
		done := make(chan error, 1)
		go func() { done <- clk.Sleep(t.Context(), time.Minute) }()
		assert.Eventually(t, func() bool {
			mock.Add(time.Second)
			select {
			case err := <-done:
				return err == nil
			default:
				return false
			}
		}, 5*time.Second, time.Millisecond)
	})

	t.Run("Should return the context error when cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		err := SystemClock().Sleep(ctx, time.Hour)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("Should not wait for non-positive durations", func(t *testing.T) {
		assert.NoError(t, NewClock(clock.NewMock()).Sleep(t.Context(), 0))
	})
}
