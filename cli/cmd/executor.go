package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"

	"github.com/citewatch/citewatch/cli/helpers"
	"github.com/citewatch/citewatch/pkg/collections"
	"github.com/citewatch/citewatch/pkg/config"
	"github.com/citewatch/citewatch/pkg/logger"
)

// CommandExecutor carries what every command handler needs: the detected
// output mode, the loaded configuration and a collections client.
type CommandExecutor struct {
	mode   helpers.Mode
	config *config.Config
	client *collections.Client
	out    io.Writer
	color  bool
}

// HandlerFunc defines the signature for command handlers.
type HandlerFunc func(ctx context.Context, cmd *cobra.Command, executor *CommandExecutor, args []string) error

// ModeHandlers contains handlers for different execution modes.
type ModeHandlers struct {
	JSON HandlerFunc
	TUI  HandlerFunc
}

// ExecutorOptions allows customization of the command executor
type ExecutorOptions struct {
	// SkipClient leaves the collections client unset.
	SkipClient bool
	// Meter records client metrics. Nil disables them.
	Meter metric.Meter
}

// NewCommandExecutor creates a new command executor with all necessary setup.
func NewCommandExecutor(cmd *cobra.Command, opts ExecutorOptions) (*CommandExecutor, error) {
	ctx := cmd.Context()
	log := logger.FromContext(ctx)
	mode := helpers.DetectMode(cmd)
	log.Debug("detected execution mode", "mode", mode)
	cfg := config.FromContext(ctx)
	executor := &CommandExecutor{
		mode:   mode,
		config: cfg,
		out:    cmd.OutOrStdout(),
		color:  mode == helpers.ModeJSON && helpers.ShouldUseColor(),
	}
	if opts.SkipClient {
		return executor, nil
	}
	client, err := NewCollectionsClient(cfg, opts.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create collections client: %w", err)
	}
	executor.client = client
	return executor, nil
}

// NewCollectionsClient builds a client from the loaded configuration.
func NewCollectionsClient(cfg *config.Config, meter metric.Meter) (*collections.Client, error) {
	return collections.New(collections.Config{
		BaseURL:      cfg.API.BaseURL,
		Tokens:       tokenProvider(&cfg.API),
		Timeout:      cfg.API.Timeout,
		UserAgent:    cfg.API.UserAgent,
		Retry:        cfg.Retry.Policy(),
		PollInterval: cfg.Poll.Interval,
		PollTimeout:  cfg.Poll.Timeout,
		RateLimit:    cfg.API.RateLimit,
		RateBurst:    cfg.API.RateBurst,
		Meter:        meter,
	})
}

func tokenProvider(api *config.APIConfig) collections.TokenProvider {
	switch {
	case api.TokenFile != "":
		return collections.NewFileToken(api.TokenFile)
	case api.Token != "":
		return collections.StaticToken(api.Token.Value())
	default:
		return nil
	}
}

// Execute runs the appropriate handler based on the detected mode.
func (e *CommandExecutor) Execute(ctx context.Context, cmd *cobra.Command, handlers ModeHandlers, args []string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	switch e.mode {
	case helpers.ModeJSON:
		if handlers.JSON == nil {
			return fmt.Errorf("JSON mode handler not implemented")
		}
		return handlers.JSON(ctx, cmd, e, args)
	case helpers.ModeTUI:
		if handlers.TUI == nil {
			return fmt.Errorf("TUI mode handler not implemented")
		}
		return handlers.TUI(ctx, cmd, e, args)
	default:
		return fmt.Errorf("unsupported mode: %s", e.mode)
	}
}

func (e *CommandExecutor) Client() *collections.Client {
	return e.client
}

func (e *CommandExecutor) Config() *config.Config {
	return e.config
}

// GetMode returns the detected execution mode.
func (e *CommandExecutor) GetMode() helpers.Mode {
	return e.mode
}

// Out is where handlers write their result.
func (e *CommandExecutor) Out() io.Writer {
	return e.out
}

// WriteJSON writes v to the command output as JSON.
func (e *CommandExecutor) WriteJSON(v any) error {
	return helpers.WriteJSON(e.out, v, e.color)
}

// ExecuteCommand is a convenience function that combines executor creation and execution.
func ExecuteCommand(cmd *cobra.Command, opts ExecutorOptions, handlers ModeHandlers, args []string) error {
	executor, err := NewCommandExecutor(cmd, opts)
	if err != nil {
		return HandleCommonErrors(cmd, err, helpers.DetectMode(cmd))
	}
	return HandleCommonErrors(cmd, executor.Execute(cmd.Context(), cmd, handlers, args), executor.GetMode())
}

// ValidateRequiredFlags checks that all required string flags are present and non-empty.
func ValidateRequiredFlags(cmd *cobra.Command, required []string) error {
	for _, flag := range required {
		if !cmd.Flags().Changed(flag) {
			return helpers.NewCliError("MISSING_FLAG", fmt.Sprintf("required flag '%s' not specified", flag))
		}
		if value, err := cmd.Flags().GetString(flag); err == nil && value == "" {
			return helpers.NewCliError("EMPTY_FLAG", fmt.Sprintf("required flag '%s' cannot be empty", flag))
		}
	}
	return nil
}

// HandleCommonErrors prints err in the command's output mode and returns it
// categorized, so callers and exit codes see a stable error code.
func HandleCommonErrors(cmd *cobra.Command, err error, mode helpers.Mode) error {
	if err == nil {
		return nil
	}
	cliErr := helpers.CategorizeError(err)
	logger.FromContext(cmd.Context()).Debug("command failed", "code", cliErr.Code, "error", err)
	helpers.OutputError(cmd.ErrOrStderr(), cliErr, mode)
	return cliErr
}
