package cli

import (
	"github.com/spf13/cobra"

	"github.com/citewatch/citewatch/cli/cmd"
	collectionscmd "github.com/citewatch/citewatch/cli/cmd/collections"
	configcmd "github.com/citewatch/citewatch/cli/cmd/config"
	versioncmd "github.com/citewatch/citewatch/cli/cmd/version"
	"github.com/citewatch/citewatch/pkg/config"
	"github.com/citewatch/citewatch/pkg/logger"
	"github.com/citewatch/citewatch/pkg/version"
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "citewatch",
		Short: "Trigger and monitor collection runs",
		Long: `citewatch triggers collection runs on the analytics backend and
follows them until they complete, fail or finish partially.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cobraCmd *cobra.Command, _ []string) error {
			return SetupGlobalConfig(cobraCmd)
		},
	}
	addGlobalFlags(root)
	root.AddCommand(
		collectionscmd.NewCollectionsCommand(),
		configcmd.NewConfigCommand(),
		versioncmd.NewVersionCommand(),
	)
	return root
}

func addGlobalFlags(root *cobra.Command) {
	flags := root.PersistentFlags()
	flags.String(cmd.ConfigFlag, cmd.DefaultConfigFile, "Path to the YAML configuration file")
	flags.String("base-url", config.DefaultBaseURL, "Analytics API base URL")
	flags.String("token", "", "Bearer token for the API")
	flags.String("token-file", "", "File holding the bearer token, re-read on every request")
	flags.Duration("api-timeout", 0, "Per-request timeout")
	flags.Float64("rate-limit", 0, "Maximum requests per second (0 disables limiting)")
	flags.String("log-level", "info", "Log level (debug, info, warn, error, disabled)")
	flags.Bool("log-json", false, "Write logs as JSON")
	flags.Bool("log-source", false, "Include source locations in logs")
	flags.String("format", config.FormatAuto, "Output format (auto, json, tui)")
}

// SetupGlobalConfig loads configuration for cobraCmd, installs the logger it
// describes and stores both in the command context.
func SetupGlobalConfig(cobraCmd *cobra.Command) error {
	cfg, _, err := cmd.LoadConfig(cobraCmd)
	if err != nil {
		return err
	}
	log := logger.SetupLogger(
		logger.ParseLevel(cfg.Runtime.LogLevel),
		cfg.Runtime.LogJSON,
		cfg.Runtime.LogSource,
	)
	ctx := config.ContextWithConfig(cobraCmd.Context(), cfg)
	ctx = logger.ContextWithLogger(ctx, log)
	cobraCmd.SetContext(ctx)
	log.Debug("configuration loaded", "base_url", cfg.API.BaseURL, "format", cfg.CLI.Format)
	return nil
}
