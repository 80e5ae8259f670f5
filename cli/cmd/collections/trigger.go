package collections

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/citewatch/citewatch/cli/cmd"
	"github.com/citewatch/citewatch/cli/tui"
	"github.com/citewatch/citewatch/pkg/collections"
	"github.com/citewatch/citewatch/pkg/logger"
)

// NewTriggerCommand creates the collections trigger subcommand
func NewTriggerCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "trigger",
		Short: "Trigger a collection run for a workspace",
		Long: `Trigger a collection run for a workspace.

By default the onboarding trigger is used, which retries with exponential
backoff while the backend answers 503. Use --manual for an on-demand run
and --wait to follow the run until it finishes.`,
		Example: `  citewatch collections trigger --workspace ws_123
  citewatch collections trigger --workspace ws_123 --wait --timeout 5m`,
		Args: cobra.NoArgs,
		RunE: executeTriggerCommand,
	}
	addWorkspaceFlag(c)
	c.Flags().Bool(flagManual, false, "Use the manual trigger endpoint instead of onboarding")
	c.Flags().Bool(flagWait, false, "Poll the run until it reaches a terminal status")
	addPollFlags(c)
	return c
}

func executeTriggerCommand(cobraCmd *cobra.Command, args []string) error {
	return cmd.ExecuteCommand(cobraCmd, cmd.ExecutorOptions{}, cmd.ModeHandlers{
		JSON: handleTriggerJSON,
		TUI:  handleTriggerTUI,
	}, args)
}

type triggerOptions struct {
	workspaceID string
	manual      bool
	wait        bool
}

func triggerOptionsFromFlags(cobraCmd *cobra.Command) (triggerOptions, error) {
	if err := cmd.ValidateRequiredFlags(cobraCmd, []string{flagWorkspace}); err != nil {
		return triggerOptions{}, err
	}
	workspaceID, err := cobraCmd.Flags().GetString(flagWorkspace)
	if err != nil {
		return triggerOptions{}, err
	}
	manual, err := cobraCmd.Flags().GetBool(flagManual)
	if err != nil {
		return triggerOptions{}, err
	}
	wait, err := cobraCmd.Flags().GetBool(flagWait)
	if err != nil {
		return triggerOptions{}, err
	}
	return triggerOptions{workspaceID: workspaceID, manual: manual, wait: wait}, nil
}

func trigger(ctx context.Context, client *collections.Client, opts triggerOptions) (*collections.CollectionTrigger, error) {
	if opts.manual {
		return client.TriggerManualCollection(ctx, opts.workspaceID)
	}
	return client.TriggerOnboardingCollection(ctx, opts.workspaceID)
}

// waitForRun polls the run started by t until it reaches a terminal status.
func waitForRun(
	ctx context.Context,
	client *collections.Client,
	workspaceID string,
	t *collections.CollectionTrigger,
	progress collections.ProgressFunc,
) (*collections.CollectionStatus, error) {
	runID, err := client.ResolveRunID(ctx, workspaceID, t)
	if err != nil {
		return nil, err
	}
	return client.PollCollectionStatus(ctx, runID, collections.WithProgress(progress))
}

type triggerResult struct {
	Trigger *collections.CollectionTrigger `json:"trigger"`
	Final   *collections.CollectionStatus  `json:"final,omitempty"`
}

func handleTriggerJSON(ctx context.Context, cobraCmd *cobra.Command, executor *cmd.CommandExecutor, _ []string) error {
	log := logger.FromContext(ctx)
	opts, err := triggerOptionsFromFlags(cobraCmd)
	if err != nil {
		return err
	}
	client := executor.Client()
	t, err := trigger(ctx, client, opts)
	if err != nil {
		return err
	}
	result := triggerResult{Trigger: t}
	if opts.wait {
		progress := func(s *collections.CollectionStatus) error {
			log.Info("Collection progress", "run_id", s.RunID, "status", s.Status)
			return nil
		}
		if t.WorkspaceID == "" {
			t.WorkspaceID = opts.workspaceID
		}
		final, err := waitForRun(ctx, client, opts.workspaceID, t, progress)
		if err != nil {
			return err
		}
		result.Final = final
	}
	return executor.WriteJSON(result)
}

func handleTriggerTUI(ctx context.Context, cobraCmd *cobra.Command, executor *cmd.CommandExecutor, _ []string) error {
	opts, err := triggerOptionsFromFlags(cobraCmd)
	if err != nil {
		return err
	}
	client := executor.Client()
	out := executor.Out()
	t, err := trigger(ctx, client, opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, tui.RenderTrigger(t))
	if !opts.wait {
		return nil
	}
	if t.WorkspaceID == "" {
		t.WorkspaceID = opts.workspaceID
	}
	final, err := waitForRun(ctx, client, opts.workspaceID, t, func(s *collections.CollectionStatus) error {
		fmt.Fprintln(out, tui.RenderStatusLine(s))
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, tui.RenderCollectionStatus(final))
	return nil
}
