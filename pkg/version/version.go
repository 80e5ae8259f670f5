package version

import (
	"fmt"
	"runtime"
)

// Build variables injected via ldflags:
// -X 'github.com/citewatch/citewatch/pkg/version.Version=v1.0.0'
// -X 'github.com/citewatch/citewatch/pkg/version.CommitHash=abc123'
// -X 'github.com/citewatch/citewatch/pkg/version.BuildDate=2024-01-01T00:00:00Z'
var (
	// Version is the semantic version of the binary (e.g., "1.0.0")
	Version = "dev"
	// CommitHash is the git commit hash used to build the binary
	CommitHash = "unknown"
	// BuildDate is the timestamp when the binary was built (RFC3339 format)
	BuildDate = "unknown"
)

// Info returns build information in a structured format
type Info struct {
	Version    string `json:"version"`
	CommitHash string `json:"commit_hash"`
	BuildDate  string `json:"build_date"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// Get returns the current build information
func Get() Info {
	return Info{
		Version:    Version,
		CommitHash: CommitHash,
		BuildDate:  BuildDate,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// UserAgent is the default User-Agent sent by the collections client.
func UserAgent() string {
	return fmt.Sprintf("citewatch/%s (%s/%s)", Version, runtime.GOOS, runtime.GOARCH)
}
