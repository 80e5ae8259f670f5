package backoff

import (
	"context"
	"errors"
	"net/http"

	"github.com/citewatch/citewatch/pkg/logger"
)

// ErrServiceUnavailable is the retry cause reported for 503 responses.
var ErrServiceUnavailable = errors.New("service unavailable")

// StatusCoder is implemented by operation results that carry an HTTP status.
type StatusCoder interface {
	StatusCode() int
}

// Do runs op, retrying 503 results and transport errors on p's schedule.
//
// A non-503 result is returned as soon as it arrives, as is an error that
// p.Retryable rejects. Once the schedule is exhausted a final 503 is returned
// with a nil error while a final transport error is returned as is.
// Cancelling ctx aborts any pending wait.
func Do[R StatusCoder](ctx context.Context, p Policy, op func(context.Context) (R, error)) (R, error) {
	var zero R
	if err := p.Validate(); err != nil {
		return zero, err
	}
	clk := p.clock()
	schedule := p.Schedule()
	log := logger.FromContext(ctx)
	for attempt := 1; ; attempt++ {
		resp, err := op(ctx)
		if err == nil && resp.StatusCode() != http.StatusServiceUnavailable {
			return resp, nil
		}
		if err != nil && p.Retryable != nil && !p.Retryable(err) {
			return zero, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err != nil {
				return zero, err
			}
			return zero, ctxErr
		}
		delay, stop := schedule.Next()
		if stop {
			return resp, err
		}
		cause, msg := err, "Network error, retrying"
		if cause == nil {
			cause, msg = ErrServiceUnavailable, "Service unavailable (503), retrying"
		}
		log.Warn(
			msg,
			"attempt", attempt,
			"max_retries", p.MaxRetries,
			"delay", delay,
			"error", cause,
		)
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, cause)
		}
		if err := clk.Sleep(ctx, delay); err != nil {
			return zero, err
		}
	}
}
