package collections

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citewatch/citewatch/pkg/logger"
)

func running() reply {
	return jsonReply(http.StatusOK, `{"run_id":"run-1","status":"running"}`)
}

func TestClient_PollCollectionStatus(t *testing.T) {
	t.Run("Should return the completed snapshot after two waits", func(t *testing.T) {
		backend, srv := newFakeBackend(t)
		backend.on(http.MethodGet, statusPath,
			running(),
			running(),
			jsonReply(http.StatusOK, `{"run_id":"run-1","status":"completed","progress":{"completed_tasks":5}}`),
		)
		client, clk := newTestClient(t, srv.URL)
		final, err := client.PollCollectionStatus(testContext(t), "run-1")
		require.NoError(t, err)
		assert.Equal(t, RunStatusCompleted, final.Status)
		require.NotNil(t, final.Progress)
		assert.Equal(t, 5, final.Progress.CompletedTasks)
		assert.Equal(t, []time.Duration{DefaultPollInterval, DefaultPollInterval}, clk.Sleeps())
		assert.Equal(t, 3, backend.count(http.MethodGet, statusPath))
	})

	t.Run("Should treat partial completion as terminal success", func(t *testing.T) {
		backend, srv := newFakeBackend(t)
		backend.on(http.MethodGet, statusPath,
			running(),
			jsonReply(http.StatusOK, `{"run_id":"run-1","status":"partial"}`),
		)
		client, _ := newTestClient(t, srv.URL)
		final, err := client.PollCollectionStatus(testContext(t), "run-1")
		require.NoError(t, err)
		assert.Equal(t, RunStatusPartial, final.Status)
	})

	t.Run("Should return a failed run as a snapshot rather than an error", func(t *testing.T) {
		backend, srv := newFakeBackend(t)
		backend.on(http.MethodGet, statusPath,
			jsonReply(http.StatusOK, `{"run_id":"run-1","status":"failed","error":"provider quota exceeded"}`))
		client, _ := newTestClient(t, srv.URL)
		final, err := client.PollCollectionStatus(testContext(t), "run-1")
		require.NoError(t, err)
		assert.Equal(t, RunStatusFailed, final.Status)
		assert.Equal(t, "provider quota exceeded", final.Error)
	})

	t.Run("Should stop on the first terminal snapshot without waiting", func(t *testing.T) {
		for _, status := range []string{"completed", "failed", "partial"} {
			backend, srv := newFakeBackend(t)
			backend.on(http.MethodGet, statusPath,
				jsonReply(http.StatusOK, `{"run_id":"run-1","status":"`+status+`"}`))
			client, clk := newTestClient(t, srv.URL)
			final, err := client.PollCollectionStatus(testContext(t), "run-1")
			require.NoError(t, err)
			assert.Equal(t, RunStatus(status), final.Status)
			assert.Empty(t, clk.Sleeps())
			assert.Equal(t, 1, backend.count(http.MethodGet, statusPath))
		}
	})

	t.Run("Should keep polling through pending and unknown statuses", func(t *testing.T) {
		backend, srv := newFakeBackend(t)
		backend.on(http.MethodGet, statusPath,
			jsonReply(http.StatusOK, `{"run_id":"run-1","status":"pending"}`),
			jsonReply(http.StatusOK, `{"run_id":"run-1","status":"queued"}`),
			jsonReply(http.StatusOK, `{"run_id":"run-1","status":"completed"}`),
		)
		client, clk := newTestClient(t, srv.URL)
		_, err := client.PollCollectionStatus(testContext(t), "run-1", WithPollInterval(time.Second))
		require.NoError(t, err)
		assert.Len(t, clk.Sleeps(), 2)
	})

	t.Run("Should time out within one interval of the deadline", func(t *testing.T) {
		backend, srv := newFakeBackend(t)
		backend.on(http.MethodGet, statusPath, running())
		client, clk := newTestClient(t, srv.URL)
		timeout := 10 * time.Second
		interval := 3 * time.Second
		_, err := client.PollCollectionStatus(testContext(t), "run-1",
			WithPollInterval(interval),
			WithPollTimeout(timeout),
		)
		require.Error(t, err)
		assert.True(t, IsTimeout(err))
		apiErr, ok := AsAPIError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusRequestTimeout, apiErr.Status)
		assert.Equal(t, CodeTimeout, apiErr.Code)
		assert.Equal(t, "Collection timed out after 10 seconds", apiErr.Message)
		assert.Greater(t, apiErr.Elapsed, timeout)
		assert.LessOrEqual(t, apiErr.Elapsed, timeout+interval)
		assert.Equal(t, len(clk.Sleeps())+1, backend.count(http.MethodGet, statusPath))
		assert.Equal(t, apiErr.Elapsed, clk.Elapsed())
	})

	t.Run("Should count time spent outside the poll interval toward the timeout", func(t *testing.T) {
		backend, srv := newFakeBackend(t)
		backend.on(http.MethodGet, statusPath, running())
		client, clk := newTestClient(t, srv.URL)
		_, err := client.PollCollectionStatus(testContext(t), "run-1",
			WithPollInterval(time.Second),
			WithPollTimeout(10*time.Second),
			WithProgress(func(*CollectionStatus) error {
				clk.Advance(11 * time.Second)
				return nil
			}),
		)
		assert.True(t, IsTimeout(err))
		assert.Empty(t, clk.Sleeps())
		assert.Equal(t, 1, backend.count(http.MethodGet, statusPath))
	})

	t.Run("Should report fractional timeouts in seconds", func(t *testing.T) {
		backend, srv := newFakeBackend(t)
		backend.on(http.MethodGet, statusPath, running())
		client, _ := newTestClient(t, srv.URL)
		_, err := client.PollCollectionStatus(testContext(t), "run-1",
			WithPollInterval(time.Second),
			WithPollTimeout(1500*time.Millisecond),
		)
		apiErr, ok := AsAPIError(err)
		require.True(t, ok)
		assert.Equal(t, "Collection timed out after 1.5 seconds", apiErr.Message)
	})

	t.Run("Should hand every snapshot to the progress callback in order", func(t *testing.T) {
		backend, srv := newFakeBackend(t)
		backend.on(http.MethodGet, statusPath,
			jsonReply(http.StatusOK, `{"run_id":"run-1","status":"pending"}`),
			jsonReply(http.StatusOK, `{"run_id":"run-1","status":"running","progress":{"completed_tasks":2}}`),
			jsonReply(http.StatusOK, `{"run_id":"run-1","status":"completed","progress":{"completed_tasks":4}}`),
		)
		client, _ := newTestClient(t, srv.URL)
		var seen []*CollectionStatus
		final, err := client.PollCollectionStatus(testContext(t), "run-1",
			WithProgress(func(s *CollectionStatus) error {
				seen = append(seen, s)
				return nil
			}),
		)
		require.NoError(t, err)
		require.Len(t, seen, 3)
		assert.Equal(t, RunStatusPending, seen[0].Status)
		assert.Equal(t, RunStatusRunning, seen[1].Status)
		assert.Same(t, final, seen[2])
	})

	t.Run("Should abort when the progress callback fails", func(t *testing.T) {
		backend, srv := newFakeBackend(t)
		backend.on(http.MethodGet, statusPath, running())
		client, clk := newTestClient(t, srv.URL)
		calls := 0
		_, err := client.PollCollectionStatus(testContext(t), "run-1",
			WithProgress(func(*CollectionStatus) error {
				calls++
				if calls == 2 {
					return assert.AnError
				}
				return nil
			}),
		)
		require.ErrorIs(t, err, ErrProgressAborted)
		require.ErrorIs(t, err, assert.AnError)
		assert.Equal(t, 2, backend.count(http.MethodGet, statusPath))
		assert.Len(t, clk.Sleeps(), 1)
	})

	t.Run("Should stop without further requests when cancelled during a wait", func(t *testing.T) {
		backend, srv := newFakeBackend(t)
		backend.on(http.MethodGet, statusPath, running())
		client, clk := newTestClient(t, srv.URL)
		ctx, cancel := context.WithCancel(testContext(t))
		defer cancel()
		clk.OnSleep(func(time.Duration) { cancel() })
		_, err := client.PollCollectionStatus(ctx, "run-1")
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, backend.count(http.MethodGet, statusPath))
	})

	t.Run("Should propagate status errors", func(t *testing.T) {
		backend, srv := newFakeBackend(t)
		backend.on(http.MethodGet, statusPath,
			running(),
			jsonReply(http.StatusNotFound, `{"detail":{"message":"Run not found","error_code":"RUN_NOT_FOUND"}}`),
		)
		client, _ := newTestClient(t, srv.URL)
		_, err := client.PollCollectionStatus(testContext(t), "run-1")
		apiErr, ok := AsAPIError(err)
		require.True(t, ok)
		assert.Equal(t, "RUN_NOT_FOUND", apiErr.Code)
	})

	t.Run("Should warn when progress counters go backwards", func(t *testing.T) {
		backend, srv := newFakeBackend(t)
		backend.on(http.MethodGet, statusPath,
			jsonReply(http.StatusOK, `{"run_id":"run-1","status":"running","progress":{"completed_tasks":4}}`),
			jsonReply(http.StatusOK, `{"run_id":"run-1","status":"completed","progress":{"completed_tasks":1}}`),
		)
		var buf bytes.Buffer
		ctx := logger.ContextWithLogger(t.Context(), logger.NewLogger(&logger.Config{
			Level:  logger.WarnLevel,
			Output: &buf,
		}))
		client, _ := newTestClient(t, srv.URL)
		_, err := client.PollCollectionStatus(ctx, "run-1")
		require.NoError(t, err)
		assert.Equal(t, 1, strings.Count(buf.String(), "Collection progress went backwards"))
	})
}

func TestClient_WatchCollectionStatus(t *testing.T) {
	t.Run("Should stream each snapshot and finish with the terminal one", func(t *testing.T) {
		backend, srv := newFakeBackend(t)
		backend.on(http.MethodGet, statusPath,
			running(),
			jsonReply(http.StatusOK, `{"run_id":"run-1","status":"completed"}`),
		)
		client, _ := newTestClient(t, srv.URL)
		var events []PollEvent
		for ev := range client.WatchCollectionStatus(testContext(t), "run-1") {
			events = append(events, ev)
		}
		require.Len(t, events, 3)
		assert.Equal(t, RunStatusRunning, events[0].Status.Status)
		assert.False(t, events[0].Done)
		assert.Equal(t, RunStatusCompleted, events[1].Status.Status)
		assert.True(t, events[2].Done)
		require.NoError(t, events[2].Err)
		assert.Same(t, events[1].Status, events[2].Status)
	})

	t.Run("Should end with the error that stopped polling", func(t *testing.T) {
		backend, srv := newFakeBackend(t)
		backend.on(http.MethodGet, statusPath, running())
		client, _ := newTestClient(t, srv.URL)
		var last PollEvent
		for ev := range client.WatchCollectionStatus(testContext(t), "run-1",
			WithPollInterval(time.Second), WithPollTimeout(2*time.Second)) {
			last = ev
		}
		assert.True(t, last.Done)
		assert.True(t, IsTimeout(last.Err))
	})

	t.Run("Should report a missing run id as the only event", func(t *testing.T) {
		_, srv := newFakeBackend(t)
		client, _ := newTestClient(t, srv.URL)
		var events []PollEvent
		for ev := range client.WatchCollectionStatus(testContext(t), "") {
			events = append(events, ev)
		}
		require.Len(t, events, 1)
		assert.ErrorIs(t, events[0].Err, ErrRunIDRequired)
	})

	t.Run("Should close the stream when the consumer goes away", func(t *testing.T) {
		backend, srv := newFakeBackend(t)
		backend.on(http.MethodGet, statusPath, running())
		client, _ := newTestClient(t, srv.URL)
		ctx, cancel := context.WithCancel(testContext(t))
		events := client.WatchCollectionStatus(ctx, "run-1")
		<-events
		cancel()
		assert.Eventually(t, func() bool {
			for {
				select {
				case _, ok := <-events:
					if !ok {
						return true
					}
				default:
					return false
				}
			}
		}, 5*time.Second, 10*time.Millisecond)
	})
}
