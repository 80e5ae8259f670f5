package collections

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_GetCollectionStatus(t *testing.T) {
	t.Run("Should decode the status snapshot", func(t *testing.T) {
		backend, srv := newFakeBackend(t)
		backend.on(http.MethodGet, statusPath, jsonReply(http.StatusOK, `{
			"run_id":"run-1",
			"status":"running",
			"collection_run_id":"cr-1",
			"workspace_id":"ws-1",
			"progress":{"completed_tasks":3,"failed_tasks":1,"responses_collected":12},
			"created_at":"2025-01-01T10:00:00Z",
			"updated_at":"2025-01-01T10:01:00Z"
		}`))
		client, _ := newTestClient(t, srv.URL)
		status, err := client.GetCollectionStatus(testContext(t), "run-1")
		require.NoError(t, err)
		assert.Equal(t, RunStatusRunning, status.Status)
		require.NotNil(t, status.Progress)
		assert.Equal(t, Progress{CompletedTasks: 3, FailedTasks: 1, ResponsesCollected: 12}, *status.Progress)
		assert.Equal(t, "2025-01-01T10:01:00Z", status.UpdatedAt)
	})

	t.Run("Should escape run ids in the path", func(t *testing.T) {
		backend, srv := newFakeBackend(t)
		client, _ := newTestClient(t, srv.URL)
		_, _ = client.GetCollectionStatus(testContext(t), "run/../1")
		assert.Equal(t, "/collections/run%2F..%2F1/status", backend.last().Path)
	})

	t.Run("Should require a run id", func(t *testing.T) {
		_, srv := newFakeBackend(t)
		client, _ := newTestClient(t, srv.URL)
		_, err := client.GetCollectionStatus(testContext(t), "")
		assert.ErrorIs(t, err, ErrRunIDRequired)
	})
}

func TestClient_GetLatestCollection(t *testing.T) {
	t.Run("Should fetch the latest run of a workspace", func(t *testing.T) {
		backend, srv := newFakeBackend(t)
		backend.on(http.MethodGet, "/workspace/ws-1/collections/latest",
			jsonReply(http.StatusOK, `{"run_id":"run-3","status":"partial","workspace_id":"ws-1"}`))
		client, _ := newTestClient(t, srv.URL)
		latest, err := client.GetLatestCollection(testContext(t), "ws-1")
		require.NoError(t, err)
		assert.Equal(t, "run-3", latest.RunID)
		assert.True(t, latest.IsTerminal())
	})

	t.Run("Should surface a missing workspace as a 404 APIError", func(t *testing.T) {
		backend, srv := newFakeBackend(t)
		backend.on(http.MethodGet, "/workspace/ws-x/collections/latest",
			jsonReply(http.StatusNotFound, `{"detail":"No collections found"}`))
		client, _ := newTestClient(t, srv.URL)
		_, err := client.GetLatestCollection(testContext(t), "ws-x")
		apiErr, ok := AsAPIError(err)
		require.True(t, ok)
		assert.Equal(t, "No collections found", apiErr.Message)
	})
}

func TestClient_GetCollectionHistory(t *testing.T) {
	const historyPath = "/workspace/ws-1/collections/history"
	historyBody := `{
		"workspace_id":"ws-1",
		"collections":[
			{"collection_run_id":"cr-1","workspace_id":"ws-1","status":"completed","created_at":"2025-01-01T00:00:00Z",
			 "completed_at":"2025-01-01T00:05:00Z","prompt_count":10,"provider_count":3,"response_count":30,"source":"manual"},
			{"collection_run_id":"cr-2","workspace_id":"ws-1","status":"failed","created_at":"2025-01-02T00:00:00Z",
			 "prompt_count":10,"provider_count":3,"response_count":0}
		],
		"total":60,"limit":25,"offset":50
	}`

	t.Run("Should compute the offset from the zero based page", func(t *testing.T) {
		backend, srv := newFakeBackend(t)
		backend.on(http.MethodGet, historyPath, jsonReply(http.StatusOK, historyBody))
		client, _ := newTestClient(t, srv.URL)
		page, err := client.GetCollectionHistory(testContext(t), "ws-1", 2, 25)
		require.NoError(t, err)
		query := backend.last().Query
		assert.Equal(t, "25", query.Get("limit"))
		assert.Equal(t, "50", query.Get("offset"))
		require.Len(t, page.Collections, 2)
		require.NotNil(t, page.Collections[0].CompletedAt)
		assert.Equal(t, "manual", *page.Collections[0].Source)
		assert.Nil(t, page.Collections[1].CompletedAt)
		assert.Nil(t, page.Collections[1].Source)
		assert.False(t, page.HasMore())
	})

	t.Run("Should default and cap the limit", func(t *testing.T) {
		cases := []struct {
			limit, page    int
			expectedLimit  string
			expectedOffset string
		}{
			{limit: 0, page: 1, expectedLimit: "10", expectedOffset: "10"},
			{limit: -5, page: 0, expectedLimit: "10", expectedOffset: "0"},
			{limit: 500, page: 3, expectedLimit: "100", expectedOffset: "300"},
		}
		for _, tc := range cases {
			backend, srv := newFakeBackend(t)
			backend.on(http.MethodGet, historyPath, jsonReply(http.StatusOK, historyBody))
			client, _ := newTestClient(t, srv.URL)
			_, err := client.GetCollectionHistory(testContext(t), "ws-1", tc.page, tc.limit)
			require.NoError(t, err)
			assert.Equal(t, tc.expectedLimit, backend.last().Query.Get("limit"))
			assert.Equal(t, tc.expectedOffset, backend.last().Query.Get("offset"))
		}
	})

	t.Run("Should reject negative pages", func(t *testing.T) {
		backend, srv := newFakeBackend(t)
		client, _ := newTestClient(t, srv.URL)
		_, err := client.GetCollectionHistory(testContext(t), "ws-1", -1, 10)
		assert.Error(t, err)
		assert.Empty(t, backend.all())
	})
}

func TestClient_GetOnboardingProgress(t *testing.T) {
	t.Run("Should pass the workspace as a query parameter", func(t *testing.T) {
		backend, srv := newFakeBackend(t)
		backend.on(http.MethodGet, "/onboarding/progress", jsonReply(http.StatusOK, `{
			"competitor_count":2,"prompt_count":8,"has_collection":false,
			"min_competitors":1,"min_prompts":5,"ready_for_collection":true,"can_complete":false
		}`))
		client, _ := newTestClient(t, srv.URL)
		progress, err := client.GetOnboardingProgress(testContext(t), "ws-1")
		require.NoError(t, err)
		assert.Equal(t, "ws-1", backend.last().Query.Get("workspace_id"))
		assert.True(t, progress.ReadyForCollection)
		assert.Equal(t, 8, progress.PromptCount)
	})
}
