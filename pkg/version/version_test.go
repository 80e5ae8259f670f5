package version

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	t.Run("Should expose injected build variables", func(t *testing.T) {
		original := Version
		Version = "v1.2.3"
		t.Cleanup(func() { Version = original })
		info := Get()
		assert.Equal(t, "v1.2.3", info.Version)
		assert.Equal(t, runtime.Version(), info.GoVersion)
		assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
	})
}

func TestUserAgent(t *testing.T) {
	t.Run("Should prefix the product name and version", func(t *testing.T) {
		ua := UserAgent()
		assert.True(t, strings.HasPrefix(ua, "citewatch/"+Version+" "))
	})
}
