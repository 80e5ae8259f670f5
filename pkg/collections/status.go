package collections

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-resty/resty/v2"
)

func (c *Client) GetCollectionStatus(ctx context.Context, runID string) (*CollectionStatus, error) {
	runID, err := requireID(runID, ErrRunIDRequired)
	if err != nil {
		return nil, err
	}
	return call[CollectionStatus](ctx, c, opStatus, http.MethodGet, "/collections/{runId}/status",
		func(req *resty.Request) {
			req.SetPathParam("runId", runID)
		})
}

// GetLatestCollection returns the most recent run of a workspace, which
// lets callers follow a run whose id they never received.
func (c *Client) GetLatestCollection(ctx context.Context, workspaceID string) (*CollectionStatus, error) {
	workspaceID, err := requireID(workspaceID, ErrWorkspaceRequired)
	if err != nil {
		return nil, err
	}
	return call[CollectionStatus](ctx, c, opLatest, http.MethodGet, "/workspace/{workspaceId}/collections/latest",
		func(req *resty.Request) {
			req.SetPathParam("workspaceId", workspaceID)
		})
}

// GetCollectionHistory returns one page of past runs. page is zero based;
// limit defaults to DefaultHistoryLimit and is capped at MaxHistoryLimit.
func (c *Client) GetCollectionHistory(
	ctx context.Context,
	workspaceID string,
	page, limit int,
) (*HistoryPage, error) {
	workspaceID, err := requireID(workspaceID, ErrWorkspaceRequired)
	if err != nil {
		return nil, err
	}
	if page < 0 {
		return nil, fmt.Errorf("page must be non-negative, got %d", page)
	}
	limit = normalizeLimit(limit)
	offset := page * limit
	return call[HistoryPage](ctx, c, opHistory, http.MethodGet, "/workspace/{workspaceId}/collections/history",
		func(req *resty.Request) {
			req.SetPathParam("workspaceId", workspaceID).
				SetQueryParam("limit", strconv.Itoa(limit)).
				SetQueryParam("offset", strconv.Itoa(offset))
		})
}

// GetOnboardingProgress reports whether a workspace is ready for its first collection.
func (c *Client) GetOnboardingProgress(ctx context.Context, workspaceID string) (*OnboardingProgress, error) {
	workspaceID, err := requireID(workspaceID, ErrWorkspaceRequired)
	if err != nil {
		return nil, err
	}
	return call[OnboardingProgress](ctx, c, opOnboarding, http.MethodGet, "/onboarding/progress",
		func(req *resty.Request) {
			req.SetQueryParam("workspace_id", workspaceID)
		})
}

func normalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return limit
	}
}
