package config

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citewatch/citewatch/cli/cmd"
	pkgconfig "github.com/citewatch/citewatch/pkg/config"
	"github.com/citewatch/citewatch/pkg/logger"
)

func newShowCommand(t *testing.T, args ...string) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	c := NewConfigShowCommand()
	c.Flags().String(cmd.ConfigFlag, "", "")
	c.Flags().String("base-url", "", "")
	require.NoError(t, c.ParseFlags(args))
	var out bytes.Buffer
	c.SetOut(&out)
	c.SetContext(logger.ContextWithLogger(t.Context(), logger.NewForTests()))
	return c, &out
}

func entriesByPath(entries []Entry) map[string]Entry {
	byPath := make(map[string]Entry, len(entries))
	for _, e := range entries {
		byPath[e.Path] = e
	}
	return byPath
}

func TestCollectEntries(t *testing.T) {
	t.Run("Should list every field with its source", func(t *testing.T) {
		c, _ := newShowCommand(t, "--base-url", "http://api.example.com")
		entries, err := collectEntries(c)
		require.NoError(t, err)
		assert.Len(t, entries, len(pkgconfig.Fields()))
		byPath := entriesByPath(entries)
		assert.Equal(t, "http://api.example.com", byPath["api.base_url"].Value)
		assert.Equal(t, pkgconfig.SourceCLI, byPath["api.base_url"].Source)
		assert.Equal(t, "CITEWATCH_API_URL", byPath["api.base_url"].EnvVar)
		assert.Equal(t, "30s", byPath["api.timeout"].Value)
		assert.Equal(t, pkgconfig.SourceDefault, byPath["api.timeout"].Source)
	})

	t.Run("Should redact tokens from the environment", func(t *testing.T) {
		t.Setenv("CITEWATCH_API_TOKEN", "super-secret")
		c, _ := newShowCommand(t)
		entries, err := collectEntries(c)
		require.NoError(t, err)
		token := entriesByPath(entries)["api.token"]
		assert.Equal(t, "[REDACTED]", token.Value)
		assert.Equal(t, pkgconfig.SourceEnv, token.Source)
	})

	t.Run("Should surface validation failures", func(t *testing.T) {
		t.Setenv("CITEWATCH_FORMAT", "yaml")
		c, _ := newShowCommand(t)
		_, err := collectEntries(c)
		require.Error(t, err)
	})
}

func TestHandleConfigShowTUI(t *testing.T) {
	t.Run("Should render a table", func(t *testing.T) {
		c, out := newShowCommand(t)
		executor, err := cmd.NewCommandExecutor(c, cmd.ExecutorOptions{SkipClient: true})
		require.NoError(t, err)
		require.NoError(t, handleConfigShowTUI(c.Context(), c, executor, nil))
		assert.Contains(t, out.String(), "KEY")
		assert.Contains(t, out.String(), "retry.max_retries")
		assert.Contains(t, out.String(), "default")
	})
}
