package collections

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/citewatch/citewatch/pkg/backoff"
	"github.com/citewatch/citewatch/pkg/logger"
)

// TriggerOnboardingCollection starts the first collection of a workspace.
// 503 responses and transport errors are retried with the client's retry
// policy since the workflow backend may still be starting.
func (c *Client) TriggerOnboardingCollection(ctx context.Context, workspaceID string) (*CollectionTrigger, error) {
	workspaceID, err := requireID(workspaceID, ErrWorkspaceRequired)
	if err != nil {
		return nil, err
	}
	policy := c.onboardingPolicy(ctx)
	resp, err := backoff.Do(ctx, policy, func(ctx context.Context) (*resty.Response, error) {
		return c.send(ctx, opTriggerOnboarding, http.MethodPost,
			"/workspace/{workspaceId}/collections/trigger",
			func(req *resty.Request) {
				req.SetPathParam("workspaceId", workspaceID)
			})
	})
	if err != nil {
		return nil, err
	}
	trigger, err := decodeResponse[CollectionTrigger](resp)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info(
		"Onboarding collection triggered",
		"workspace_id", workspaceID,
		"run_id", trigger.RunID(),
		"status", trigger.Status,
	)
	return trigger, nil
}

// TriggerManualCollection asks for a refresh and returns as soon as the
// backend accepts it. It is not retried.
func (c *Client) TriggerManualCollection(ctx context.Context, workspaceID string) (*CollectionTrigger, error) {
	workspaceID, err := requireID(workspaceID, ErrWorkspaceRequired)
	if err != nil {
		return nil, err
	}
	trigger, err := call[CollectionTrigger](ctx, c, opTriggerManual, http.MethodPost, "/collections/trigger",
		func(req *resty.Request) {
			req.SetBody(map[string]string{"workspace_id": workspaceID})
		})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info(
		"Manual collection triggered",
		"workspace_id", workspaceID,
		"run_id", trigger.RunID(),
		"status", trigger.Status,
	)
	return trigger, nil
}

// TriggerAndWait triggers an onboarding collection and polls it to a
// terminal status. When the trigger response carries no run id the latest
// run of the workspace is polled instead.
func (c *Client) TriggerAndWait(
	ctx context.Context,
	workspaceID string,
	opts ...PollOption,
) (*CollectionStatus, error) {
	trigger, err := c.TriggerOnboardingCollection(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	runID, err := c.ResolveRunID(ctx, workspaceID, trigger)
	if err != nil {
		return nil, err
	}
	return c.PollCollectionStatus(ctx, runID, opts...)
}

// ResolveRunID returns the run started by trigger. Triggers that omit the id
// resolve to the latest run of workspaceID, and ErrNoRunID is returned when
// that has none either.
func (c *Client) ResolveRunID(ctx context.Context, workspaceID string, trigger *CollectionTrigger) (string, error) {
	if runID := trigger.RunID(); runID != "" {
		return runID, nil
	}
	latest, err := c.GetLatestCollection(ctx, workspaceID)
	if err != nil {
		return "", err
	}
	runID := latest.RunID
	if runID == "" {
		runID = latest.CollectionRunID
	}
	if runID == "" {
		return "", ErrNoRunID
	}
	return runID, nil
}

func (c *Client) onboardingPolicy(ctx context.Context) backoff.Policy {
	policy := c.retry
	policy.Clock = c.clock
	retryable := policy.Retryable
	policy.Retryable = func(err error) bool {
		if errors.Is(err, ErrRequestNotSent) {
			return false
		}
		return retryable == nil || retryable(err)
	}
	observer := policy.OnRetry
	policy.OnRetry = func(attempt int, delay time.Duration, cause error) {
		reason := retryReasonTransport
		if errors.Is(cause, backoff.ErrServiceUnavailable) {
			reason = retryReasonUnavailable
		}
		c.metrics.recordRetry(ctx, reason)
		if observer != nil {
			observer(attempt, delay, cause)
		}
	}
	return policy
}
