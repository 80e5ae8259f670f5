package collections

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/citewatch/citewatch/cli/cmd"
	"github.com/citewatch/citewatch/cli/tui"
	"github.com/citewatch/citewatch/pkg/collections"
)

// NewProgressCommand creates the collections progress subcommand
func NewProgressCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "progress",
		Short: "Show whether a workspace is ready for its first collection",
		Args:  cobra.NoArgs,
		RunE:  executeProgressCommand,
	}
	addWorkspaceFlag(c)
	return c
}

func executeProgressCommand(cobraCmd *cobra.Command, args []string) error {
	return cmd.ExecuteCommand(cobraCmd, cmd.ExecutorOptions{}, cmd.ModeHandlers{
		JSON: func(ctx context.Context, cobraCmd *cobra.Command, executor *cmd.CommandExecutor, _ []string) error {
			_, progress, err := fetchProgress(ctx, cobraCmd, executor.Client())
			if err != nil {
				return err
			}
			return executor.WriteJSON(progress)
		},
		TUI: func(ctx context.Context, cobraCmd *cobra.Command, executor *cmd.CommandExecutor, _ []string) error {
			workspaceID, progress, err := fetchProgress(ctx, cobraCmd, executor.Client())
			if err != nil {
				return err
			}
			fmt.Fprintln(executor.Out(), tui.RenderOnboardingProgress(workspaceID, progress))
			return nil
		},
	}, args)
}

func fetchProgress(
	ctx context.Context,
	cobraCmd *cobra.Command,
	client *collections.Client,
) (string, *collections.OnboardingProgress, error) {
	if err := cmd.ValidateRequiredFlags(cobraCmd, []string{flagWorkspace}); err != nil {
		return "", nil, err
	}
	workspaceID, err := cobraCmd.Flags().GetString(flagWorkspace)
	if err != nil {
		return "", nil, err
	}
	progress, err := client.GetOnboardingProgress(ctx, workspaceID)
	return workspaceID, progress, err
}
