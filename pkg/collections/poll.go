package collections

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/citewatch/citewatch/pkg/logger"
)

// ProgressFunc observes every snapshot fetched by a poll loop, in order.
// Returning an error stops the loop; the error comes back wrapped in
// ErrProgressAborted.
type ProgressFunc func(status *CollectionStatus) error

type PollOption func(*pollOptions)

type pollOptions struct {
	interval   time.Duration
	timeout    time.Duration
	onProgress ProgressFunc
}

func WithProgress(fn ProgressFunc) PollOption {
	return func(o *pollOptions) {
		o.onProgress = fn
	}
}

// WithPollInterval overrides the wait between status requests. Non-positive values are ignored.
func WithPollInterval(d time.Duration) PollOption {
	return func(o *pollOptions) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithPollTimeout overrides how long to wait for a terminal status. Non-positive values are ignored.
func WithPollTimeout(d time.Duration) PollOption {
	return func(o *pollOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func (c *Client) resolvePollOptions(opts []PollOption) pollOptions {
	o := pollOptions{interval: c.pollInterval, timeout: c.pollTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// PollCollectionStatus fetches the run status until it is terminal, the
// timeout elapses or ctx is done. Each iteration issues exactly one status
// request, hands the snapshot to the progress callback and then checks for
// completion. A timeout yields an APIError with status 408 and code TIMEOUT.
func (c *Client) PollCollectionStatus(
	ctx context.Context,
	runID string,
	opts ...PollOption,
) (*CollectionStatus, error) {
	runID, err := requireID(runID, ErrRunIDRequired)
	if err != nil {
		return nil, err
	}
	return c.poll(ctx, runID, c.resolvePollOptions(opts))
}

func (c *Client) poll(ctx context.Context, runID string, o pollOptions) (*CollectionStatus, error) {
	log := logger.FromContext(ctx).With("run_id", runID)
	start := c.clock.Now()
	var previous *Progress
	for iteration := 1; ; iteration++ {
		status, err := c.GetCollectionStatus(ctx, runID)
		if err != nil {
			c.metrics.recordPollOutcome(ctx, failureOutcome(ctx))
			return nil, err
		}
		c.metrics.recordPollIteration(ctx, status.Status)
		warnOnRegression(log, previous, status.Progress)
		previous = status.Progress
		log.Debug("Collection status polled", "iteration", iteration, "status", status.Status)
		if o.onProgress != nil {
			if err := o.onProgress(status); err != nil {
				c.metrics.recordPollOutcome(ctx, outcomeAborted)
				return nil, fmt.Errorf("%w: %w", ErrProgressAborted, err)
			}
		}
		if status.IsTerminal() {
			c.metrics.recordPollOutcome(ctx, outcomeTerminal)
			log.Info("Collection reached terminal status", "status", status.Status, "iterations", iteration)
			return status, nil
		}
		if elapsed := c.clock.Now().Sub(start); elapsed > o.timeout {
			c.metrics.recordPollOutcome(ctx, outcomeTimeout)
			log.Warn("Collection polling timed out", "timeout", o.timeout, "elapsed", elapsed)
			return nil, newTimeoutError(o.timeout, elapsed)
		}
		if err := c.clock.Sleep(ctx, o.interval); err != nil {
			c.metrics.recordPollOutcome(ctx, outcomeCanceled)
			return nil, err
		}
	}
}

func failureOutcome(ctx context.Context) string {
	if ctx.Err() != nil {
		return outcomeCanceled
	}
	return outcomeError
}

// warnOnRegression flags counters that went backwards between two snapshots.
func warnOnRegression(log logger.Logger, previous, current *Progress) {
	if previous == nil || current == nil {
		return
	}
	if current.CompletedTasks < previous.CompletedTasks ||
		current.FailedTasks < previous.FailedTasks ||
		current.ResponsesCollected < previous.ResponsesCollected {
		log.Warn(
			"Collection progress went backwards",
			"previous_completed", previous.CompletedTasks,
			"completed", current.CompletedTasks,
			"previous_responses", previous.ResponsesCollected,
			"responses", current.ResponsesCollected,
		)
	}
}

// PollEvent is one message of a watch stream. The last event has Done set
// and carries either the terminal snapshot or the error that ended polling.
type PollEvent struct {
	Status *CollectionStatus
	Err    error
	Done   bool
}

// WatchCollectionStatus runs PollCollectionStatus in a goroutine and streams
// every snapshot. The channel is closed after the final event, or as soon as
// ctx is done if nobody is reading.
func (c *Client) WatchCollectionStatus(ctx context.Context, runID string, opts ...PollOption) <-chan PollEvent {
	events := make(chan PollEvent)
	go func() {
		defer close(events)
		id, err := requireID(runID, ErrRunIDRequired)
		if err != nil {
			sendEvent(ctx, events, PollEvent{Err: err, Done: true})
			return
		}
		o := c.resolvePollOptions(opts)
		observer := o.onProgress
		o.onProgress = func(status *CollectionStatus) error {
			if observer != nil {
				if err := observer(status); err != nil {
					return err
				}
			}
			if !sendEvent(ctx, events, PollEvent{Status: status}) {
				return ctx.Err()
			}
			return nil
		}
		final, err := c.poll(ctx, id, o)
		if err != nil && errors.Is(err, ErrProgressAborted) && ctx.Err() != nil {
			err = ctx.Err()
		}
		sendEvent(ctx, events, PollEvent{Status: final, Err: err, Done: true})
	}()
	return events
}

func sendEvent(ctx context.Context, events chan<- PollEvent, ev PollEvent) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
