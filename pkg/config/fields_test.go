package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFields(t *testing.T) {
	t.Run("Should expose env bindings for leaf keys", func(t *testing.T) {
		assert.Equal(t, "CITEWATCH_API_URL", EnvVarFor("api.base_url"))
		assert.Equal(t, "CITEWATCH_POLL_TIMEOUT", EnvVarFor("poll.timeout"))
		assert.Empty(t, EnvVarFor("api"))
		assert.Equal(t, "poll.interval", GenerateEnvToConfigMap()["CITEWATCH_POLL_INTERVAL"])
	})

	t.Run("Should flag sensitive keys", func(t *testing.T) {
		assert.True(t, IsSensitivePath("api.token"))
		assert.False(t, IsSensitivePath("api.token_file"))
	})

	t.Run("Should prefix every env var", func(t *testing.T) {
		for _, f := range Fields() {
			if f.EnvVar != "" {
				assert.Regexp(t, "^"+EnvPrefix, f.EnvVar, f.Path)
			}
		}
	})
}

func TestSensitiveString(t *testing.T) {
	t.Run("Should redact non-empty values in String and JSON", func(t *testing.T) {
		s := SensitiveString("secret-jwt")
		assert.Equal(t, "[REDACTED]", s.String())
		data, err := json.Marshal(struct {
			Token SensitiveString `json:"token"`
		}{Token: s})
		require.NoError(t, err)
		assert.JSONEq(t, `{"token":"[REDACTED]"}`, string(data))
		assert.Equal(t, "secret-jwt", s.Value())
	})

	t.Run("Should keep empty values empty", func(t *testing.T) {
		assert.Empty(t, SensitiveString("").String())
	})

	t.Run("Should unmarshal the real value", func(t *testing.T) {
		var s SensitiveString
		require.NoError(t, json.Unmarshal([]byte(`"abc"`), &s))
		assert.Equal(t, "abc", s.Value())
	})
}

func TestContext(t *testing.T) {
	t.Run("Should return the attached configuration", func(t *testing.T) {
		cfg := Default()
		cfg.CLI.Format = FormatJSON
		assert.Same(t, cfg, FromContext(ContextWithConfig(t.Context(), cfg)))
	})

	t.Run("Should fall back to defaults", func(t *testing.T) {
		assert.Equal(t, Default(), FromContext(t.Context()))
	})
}
