package config

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"

	"github.com/citewatch/citewatch/cli/cmd"
	"github.com/citewatch/citewatch/pkg/config"
	"github.com/citewatch/citewatch/pkg/logger"
)

// NewConfigCommand creates the config command using the unified command pattern
func NewConfigCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "config",
		Short: "Inspect the resolved configuration",
	}
	c.AddCommand(NewConfigShowCommand())
	return c
}

// NewConfigShowCommand creates the config show subcommand
func NewConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show configuration values and the source of each",
		Long: `Display the resolved configuration. Each key is reported with the
source that set it: default, yaml, env or cli. Secrets are redacted.`,
		Args: cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(cobraCmd, cmd.ExecutorOptions{SkipClient: true}, cmd.ModeHandlers{
				JSON: handleConfigShowJSON,
				TUI:  handleConfigShowTUI,
			}, args)
		},
	}
}

// Entry is one resolved configuration key.
type Entry struct {
	Path   string            `json:"path"`
	Value  string            `json:"value"`
	Source config.SourceType `json:"source"`
	EnvVar string            `json:"env,omitempty"`
}

func collectEntries(cobraCmd *cobra.Command) ([]Entry, error) {
	cfg, service, err := cmd.LoadConfig(cobraCmd)
	if err != nil {
		return nil, err
	}
	k := koanf.New(".")
	if err := k.Load(structs.Provider(cfg, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to flatten configuration: %w", err)
	}
	fields := config.Fields()
	entries := make([]Entry, 0, len(fields))
	for _, f := range fields {
		entries = append(entries, Entry{
			Path:   f.Path,
			Value:  fmt.Sprint(k.Get(f.Path)),
			Source: service.GetSource(f.Path),
			EnvVar: f.EnvVar,
		})
	}
	return entries, nil
}

func handleConfigShowJSON(ctx context.Context, cobraCmd *cobra.Command, executor *cmd.CommandExecutor, _ []string) error {
	logger.FromContext(ctx).Debug("executing config show command in JSON mode")
	entries, err := collectEntries(cobraCmd)
	if err != nil {
		return err
	}
	return executor.WriteJSON(entries)
}

func handleConfigShowTUI(ctx context.Context, cobraCmd *cobra.Command, executor *cmd.CommandExecutor, _ []string) error {
	logger.FromContext(ctx).Debug("executing config show command in TUI mode")
	entries, err := collectEntries(cobraCmd)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(executor.Out(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tVALUE\tSOURCE\tENV")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Path, e.Value, e.Source, e.EnvVar)
	}
	return w.Flush()
}
