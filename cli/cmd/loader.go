package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/citewatch/citewatch/pkg/config"
)

const (
	// ConfigFlag names the persistent flag holding the YAML config path.
	ConfigFlag = "config"
	// DefaultConfigFile is read from the working directory when present.
	DefaultConfigFile = "citewatch.yaml"
)

// LoadConfig resolves the configuration for cobraCmd. Sources apply in
// order: defaults, the YAML file, environment variables, changed flags.
// An explicit --config file must exist; the default one is optional.
func LoadConfig(cobraCmd *cobra.Command) (*config.Config, config.Service, error) {
	service := config.NewService()
	var sources []config.Source
	path, err := cobraCmd.Flags().GetString(ConfigFlag)
	if err != nil {
		path = DefaultConfigFile
	}
	switch {
	case path == "":
	case cobraCmd.Flags().Changed(ConfigFlag):
		sources = append(sources, config.NewRequiredYAMLProvider(path))
	default:
		sources = append(sources, config.NewYAMLProvider(path))
	}
	sources = append(sources, config.NewEnvProvider(), config.NewCLIProvider(ChangedFlags(cobraCmd)))
	cfg, err := service.Load(cobraCmd.Context(), sources...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, service, nil
}

// ChangedFlags returns the flags set on the command line keyed by name.
// Values are kept as text; config decoding converts them.
func ChangedFlags(cobraCmd *cobra.Command) map[string]any {
	flags := make(map[string]any)
	cobraCmd.Flags().Visit(func(f *pflag.Flag) {
		if f.Name == ConfigFlag {
			return
		}
		flags[f.Name] = f.Value.String()
	})
	return flags
}
