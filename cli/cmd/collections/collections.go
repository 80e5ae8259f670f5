package collections

import (
	"github.com/spf13/cobra"
)

const (
	flagWorkspace    = "workspace"
	flagManual       = "manual"
	flagWait         = "wait"
	flagPollInterval = "poll-interval"
	flagTimeout      = "timeout"
	flagPage         = "page"
	flagLimit        = "limit"
	flagMetricsAddr  = "metrics-addr"
)

// NewCollectionsCommand groups the collection run commands.
func NewCollectionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collections",
		Aliases: []string{"collection", "runs"},
		Short:   "Trigger and monitor collection runs",
		Long: `Trigger collection runs for a workspace and follow them until they
reach a terminal status (completed, failed or partial).`,
	}
	cmd.AddCommand(
		NewTriggerCommand(),
		NewStatusCommand(),
		NewLatestCommand(),
		NewHistoryCommand(),
		NewWatchCommand(),
		NewProgressCommand(),
	)
	return cmd
}

func addWorkspaceFlag(cmd *cobra.Command) {
	cmd.Flags().StringP(flagWorkspace, "w", "", "Workspace ID")
}

// addPollFlags registers flags the root command maps onto poll.interval and poll.timeout.
func addPollFlags(cmd *cobra.Command) {
	cmd.Flags().Duration(flagPollInterval, 0, "Delay between status requests (default from config)")
	cmd.Flags().Duration(flagTimeout, 0, "Give up waiting after this long (default from config)")
}
