package collections

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/citewatch/citewatch/cli/cmd"
	"github.com/citewatch/citewatch/cli/tui"
	"github.com/citewatch/citewatch/pkg/collections"
)

// NewHistoryCommand creates the collections history subcommand
func NewHistoryCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "history",
		Short: "List past collection runs of a workspace",
		Example: `  citewatch collections history --workspace ws_123
  citewatch collections history --workspace ws_123 --page 2 --limit 25`,
		Args: cobra.NoArgs,
		RunE: executeHistoryCommand,
	}
	addWorkspaceFlag(c)
	c.Flags().Int(flagPage, 0, "Zero-based page number")
	c.Flags().Int(flagLimit, collections.DefaultHistoryLimit,
		fmt.Sprintf("Runs per page (max %d)", collections.MaxHistoryLimit))
	return c
}

func executeHistoryCommand(cobraCmd *cobra.Command, args []string) error {
	return cmd.ExecuteCommand(cobraCmd, cmd.ExecutorOptions{}, cmd.ModeHandlers{
		JSON: func(ctx context.Context, cobraCmd *cobra.Command, executor *cmd.CommandExecutor, _ []string) error {
			page, err := fetchHistory(ctx, cobraCmd, executor.Client())
			if err != nil {
				return err
			}
			return executor.WriteJSON(page)
		},
		TUI: func(ctx context.Context, cobraCmd *cobra.Command, executor *cmd.CommandExecutor, _ []string) error {
			page, err := fetchHistory(ctx, cobraCmd, executor.Client())
			if err != nil {
				return err
			}
			fmt.Fprintln(executor.Out(), tui.RenderHistory(page))
			return nil
		},
	}, args)
}

func fetchHistory(ctx context.Context, cobraCmd *cobra.Command, client *collections.Client) (*collections.HistoryPage, error) {
	if err := cmd.ValidateRequiredFlags(cobraCmd, []string{flagWorkspace}); err != nil {
		return nil, err
	}
	workspaceID, err := cobraCmd.Flags().GetString(flagWorkspace)
	if err != nil {
		return nil, err
	}
	page, err := cobraCmd.Flags().GetInt(flagPage)
	if err != nil {
		return nil, err
	}
	limit, err := cobraCmd.Flags().GetInt(flagLimit)
	if err != nil {
		return nil, err
	}
	return client.GetCollectionHistory(ctx, workspaceID, page, limit)
}
