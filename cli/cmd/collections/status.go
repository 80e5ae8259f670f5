package collections

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/citewatch/citewatch/cli/cmd"
	"github.com/citewatch/citewatch/cli/tui"
	"github.com/citewatch/citewatch/pkg/collections"
)

// NewStatusCommand creates the collections status subcommand
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status RUN_ID",
		Short: "Show the current status of a collection run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(cobraCmd, cmd.ExecutorOptions{}, statusHandlers(fetchStatus), args)
		},
	}
}

// NewLatestCommand creates the collections latest subcommand
func NewLatestCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "latest",
		Short: "Show the most recent collection run of a workspace",
		Args:  cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(cobraCmd, cmd.ExecutorOptions{}, statusHandlers(fetchLatest), args)
		},
	}
	addWorkspaceFlag(c)
	return c
}

func fetchStatus(
	ctx context.Context,
	_ *cobra.Command,
	client *collections.Client,
	args []string,
) (*collections.CollectionStatus, error) {
	return client.GetCollectionStatus(ctx, args[0])
}

func fetchLatest(
	ctx context.Context,
	cobraCmd *cobra.Command,
	client *collections.Client,
	_ []string,
) (*collections.CollectionStatus, error) {
	if err := cmd.ValidateRequiredFlags(cobraCmd, []string{flagWorkspace}); err != nil {
		return nil, err
	}
	workspaceID, err := cobraCmd.Flags().GetString(flagWorkspace)
	if err != nil {
		return nil, err
	}
	return client.GetLatestCollection(ctx, workspaceID)
}

type statusFetcher func(
	ctx context.Context,
	cobraCmd *cobra.Command,
	client *collections.Client,
	args []string,
) (*collections.CollectionStatus, error)

func statusHandlers(fetch statusFetcher) cmd.ModeHandlers {
	return cmd.ModeHandlers{
		JSON: func(ctx context.Context, cobraCmd *cobra.Command, executor *cmd.CommandExecutor, args []string) error {
			status, err := fetch(ctx, cobraCmd, executor.Client(), args)
			if err != nil {
				return err
			}
			return executor.WriteJSON(status)
		},
		TUI: func(ctx context.Context, cobraCmd *cobra.Command, executor *cmd.CommandExecutor, args []string) error {
			status, err := fetch(ctx, cobraCmd, executor.Client(), args)
			if err != nil {
				return err
			}
			fmt.Fprintln(executor.Out(), tui.RenderCollectionStatus(status))
			return nil
		},
	}
}
