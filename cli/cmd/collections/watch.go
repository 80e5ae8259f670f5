package collections

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/citewatch/citewatch/cli/cmd"
	"github.com/citewatch/citewatch/cli/helpers"
	"github.com/citewatch/citewatch/cli/tui"
	"github.com/citewatch/citewatch/pkg/collections"
	"github.com/citewatch/citewatch/pkg/config"
	"github.com/citewatch/citewatch/pkg/logger"
	"github.com/citewatch/citewatch/pkg/monitoring"
)

// maxConcurrentWatches bounds how many runs are polled at once.
const maxConcurrentWatches = 8

// NewWatchCommand creates the collections watch subcommand
func NewWatchCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "watch RUN_ID...",
		Short: "Follow one or more collection runs until they finish",
		Long: `Poll each run until it reaches a terminal status, printing every snapshot.

In JSON mode one event per line is written to stdout. With --metrics-addr
the client metrics are served in Prometheus format while watching.`,
		Example: `  citewatch collections watch run_1 run_2 --poll-interval 5s
  citewatch collections watch run_1 --metrics-addr 127.0.0.1:9464`,
		Args: cobra.MinimumNArgs(1),
		RunE: executeWatchCommand,
	}
	addPollFlags(c)
	c.Flags().String(flagMetricsAddr, "", "Serve Prometheus metrics on this address while watching")
	return c
}

func executeWatchCommand(cobraCmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cobraCmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cobraCmd.SetContext(ctx)
	mon, err := monitoring.NewService(ctx, monitoringConfig(cobraCmd, config.FromContext(ctx)))
	if err != nil {
		return cmd.HandleCommonErrors(cobraCmd, err, helpers.DetectMode(cobraCmd))
	}
	defer func() {
		if err := mon.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.FromContext(ctx).Warn("Failed to shut down metrics", "error", err)
		}
	}()
	w := &watcher{monitoring: mon}
	return cmd.ExecuteCommand(cobraCmd, cmd.ExecutorOptions{Meter: mon.Meter()}, cmd.ModeHandlers{
		JSON: w.handleJSON,
		TUI:  w.handleTUI,
	}, args)
}

// monitoringConfig enables the exporter when configured or when --metrics-addr is given.
func monitoringConfig(cobraCmd *cobra.Command, cfg *config.Config) *monitoring.Config {
	return &monitoring.Config{
		Enabled: cfg.Monitoring.Enabled || cobraCmd.Flags().Changed(flagMetricsAddr),
		Addr:    cfg.Monitoring.Addr,
		Path:    cfg.Monitoring.Path,
	}
}

type watcher struct {
	monitoring *monitoring.Service
}

// watchEvent is one line of the JSON watch stream.
type watchEvent struct {
	RunID  string                        `json:"run_id"`
	Status *collections.CollectionStatus `json:"status,omitempty"`
	Error  string                        `json:"error,omitempty"`
	Done   bool                          `json:"done"`
}

type emitFunc func(runID string, ev collections.PollEvent) error

func (w *watcher) handleJSON(ctx context.Context, _ *cobra.Command, executor *cmd.CommandExecutor, args []string) error {
	enc := json.NewEncoder(executor.Out())
	return w.run(ctx, executor.Client(), args, func(runID string, ev collections.PollEvent) error {
		out := watchEvent{RunID: runID, Status: ev.Status, Done: ev.Done}
		if ev.Err != nil {
			out.Error = helpers.CategorizeError(ev.Err).Message
		}
		return enc.Encode(out)
	})
}

func (w *watcher) handleTUI(ctx context.Context, _ *cobra.Command, executor *cmd.CommandExecutor, args []string) error {
	out := executor.Out()
	return w.run(ctx, executor.Client(), args, func(runID string, ev collections.PollEvent) error {
		return renderWatchEvent(out, runID, ev)
	})
}

func renderWatchEvent(out io.Writer, runID string, ev collections.PollEvent) error {
	var err error
	switch {
	case ev.Err != nil:
		_, err = fmt.Fprintf(out, "%s %s\n", tui.MutedStyle.Render(runID), helpers.FormatError(ev.Err, helpers.ModeTUI))
	case ev.Done:
		_, err = fmt.Fprintln(out, tui.RenderCollectionStatus(ev.Status))
	default:
		_, err = fmt.Fprintln(out, tui.RenderStatusLine(ev.Status))
	}
	return err
}

// run watches every run id, serving metrics alongside when enabled. Events
// are emitted one at a time. A failed run does not stop the others; all
// failures are returned together.
func (w *watcher) run(ctx context.Context, client *collections.Client, runIDs []string, emit emitFunc) error {
	serveCtx, stopServing := context.WithCancel(ctx)
	served := make(chan error, 1)
	go func() {
		served <- w.monitoring.Serve(serveCtx)
	}()
	watchErr := watchRuns(ctx, client, runIDs, emit)
	stopServing()
	if err := <-served; err != nil {
		logger.FromContext(ctx).Warn("Metrics server stopped with error", "error", err)
	}
	return watchErr
}

func watchRuns(ctx context.Context, client *collections.Client, runIDs []string, emit emitFunc) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentWatches)
	var mu sync.Mutex
	errs := make([]error, len(runIDs))
	for i, runID := range runIDs {
		g.Go(func() error {
			for ev := range client.WatchCollectionStatus(gctx, runID) {
				mu.Lock()
				emitErr := emit(runID, ev)
				mu.Unlock()
				if emitErr != nil {
					return fmt.Errorf("failed to write event: %w", emitErr)
				}
				if ev.Err != nil {
					errs[i] = fmt.Errorf("run %s: %w", runID, ev.Err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.Join(errs...)
}
