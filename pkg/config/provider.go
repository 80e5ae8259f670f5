package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// envProvider marks where environment variables apply in the source order.
type envProvider struct{}

func NewEnvProvider() Source {
	return &envProvider{}
}

// Load is unused; the loader reads the environment through koanf's env provider.
func (e *envProvider) Load() (map[string]any, error) {
	return map[string]any{}, nil
}

func (e *envProvider) Type() SourceType {
	return SourceEnv
}

// CLIFlagPaths maps global and command flags onto config paths.
var CLIFlagPaths = map[string]string{
	"base-url":      "api.base_url",
	"token":         "api.token",
	"token-file":    "api.token_file",
	"api-timeout":   "api.timeout",
	"rate-limit":    "api.rate_limit",
	"log-level":     "runtime.log_level",
	"log-json":      "runtime.log_json",
	"log-source":    "runtime.log_source",
	"format":        "cli.format",
	"poll-interval": "poll.interval",
	"timeout":       "poll.timeout",
	"metrics-addr":  "monitoring.addr",
}

type cliProvider struct {
	flags map[string]any
}

// NewCLIProvider builds a source from changed flag values keyed by flag name.
// Flags without an entry in CLIFlagPaths are ignored.
func NewCLIProvider(flags map[string]any) Source {
	return &cliProvider{flags: flags}
}

func (c *cliProvider) Load() (map[string]any, error) {
	config := make(map[string]any)
	for key, value := range c.flags {
		path, ok := CLIFlagPaths[key]
		if !ok {
			continue
		}
		if err := setNested(config, path, value); err != nil {
			return nil, fmt.Errorf("failed to set CLI flag %s: %w", key, err)
		}
	}
	return config, nil
}

func (c *cliProvider) Type() SourceType {
	return SourceCLI
}

// setNested sets a value in a nested map structure using dot notation.
func setNested(m map[string]any, path string, value any) error {
	if path == "" {
		return nil
	}
	parts := strings.Split(path, ".")
	current := m
	for i := 0; i < len(parts)-1; i++ {
		part := parts[i]
		if _, exists := current[part]; !exists {
			current[part] = make(map[string]any)
		}
		next, ok := current[part].(map[string]any)
		if !ok {
			return fmt.Errorf("configuration conflict: key %q is not a map", strings.Join(parts[:i+1], "."))
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
	return nil
}

type yamlProvider struct {
	path     string
	required bool
}

// NewYAMLProvider reads a YAML file. A missing file yields no values.
func NewYAMLProvider(path string) Source {
	return &yamlProvider{path: path}
}

// NewRequiredYAMLProvider is NewYAMLProvider but fails when the file is missing.
func NewRequiredYAMLProvider(path string) Source {
	return &yamlProvider{path: path, required: true}
}

func (y *yamlProvider) Load() (map[string]any, error) {
	data, err := os.ReadFile(y.path)
	if err != nil {
		if os.IsNotExist(err) && !y.required {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("failed to read YAML file: %w", err)
	}
	var config map[string]any
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML file: %w", err)
	}
	return filterNilValues(config), nil
}

// filterNilValues drops nil leaves so they do not override lower layers.
func filterNilValues(m map[string]any) map[string]any {
	result := make(map[string]any)
	for k, v := range m {
		if v == nil {
			continue
		}
		if nested, ok := v.(map[string]any); ok {
			if filtered := filterNilValues(nested); len(filtered) > 0 {
				result[k] = filtered
			}
			continue
		}
		result[k] = v
	}
	return result
}

func (y *yamlProvider) Type() SourceType {
	return SourceYAML
}
