package version

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/citewatch/citewatch/cli/cmd"
	"github.com/citewatch/citewatch/cli/tui"
	"github.com/citewatch/citewatch/pkg/version"
)

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(cobraCmd, cmd.ExecutorOptions{SkipClient: true}, cmd.ModeHandlers{
				JSON: func(_ context.Context, _ *cobra.Command, executor *cmd.CommandExecutor, _ []string) error {
					return executor.WriteJSON(version.Get())
				},
				TUI: func(_ context.Context, _ *cobra.Command, executor *cmd.CommandExecutor, _ []string) error {
					info := version.Get()
					fmt.Fprintf(executor.Out(), "%s %s\n", tui.TitleStyle.Render("citewatch"), info.Version)
					fmt.Fprintln(executor.Out(), tui.MutedStyle.Render(
						fmt.Sprintf("commit %s · built %s · %s %s", info.CommitHash, info.BuildDate, info.GoVersion, info.Platform),
					))
					return nil
				},
			}, args)
		},
	}
}
