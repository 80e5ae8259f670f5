package helpers

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/citewatch/citewatch/pkg/config"
)

var ciVars = []string{
	"CI",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"CIRCLECI",
	"BUILDKITE",
	"JENKINS_URL",
	"TF_BUILD",           // Azure DevOps
	"CODEBUILD_BUILD_ID", // AWS CodeBuild
	"TEAMCITY_VERSION",
	"CONTINUOUS_INTEGRATION",
}

func isRunningInCI() bool {
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func dumbTerminal() bool {
	term := os.Getenv("TERM")
	return term == "" || term == "dumb"
}

// checkExplicitFormat reports the mode pinned by --format or config.
func checkExplicitFormat(cfg *config.Config) (Mode, bool) {
	switch OutputFormat(cfg.CLI.Format) {
	case OutputFormatJSON:
		return ModeJSON, true
	case OutputFormatTUI:
		return ModeTUI, true
	default:
		return ModeJSON, false
	}
}

func isInteractiveEnvironment() bool {
	if isRunningInCI() {
		return false
	}
	if !isTerminal(os.Stdout) {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return !dumbTerminal()
}

// DetectMode picks the output mode. An explicit format wins; otherwise an
// interactive terminal gets TUI output and everything else gets JSON.
func DetectMode(cmd *cobra.Command) Mode {
	cfg := config.FromContext(cmd.Context())
	if mode, found := checkExplicitFormat(cfg); found {
		return mode
	}
	if isInteractiveEnvironment() {
		return ModeTUI
	}
	return ModeJSON
}

// ShouldUseColor reports whether ANSI colors may be written to stdout.
func ShouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" || isRunningInCI() {
		return false
	}
	return isTerminal(os.Stdout) && !dumbTerminal()
}
