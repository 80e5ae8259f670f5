package helpers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/tidwall/pretty"

	"github.com/citewatch/citewatch/pkg/collections"
)

// CliError is a categorized command failure.
type CliError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   string         `json:"details,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	cause     error
}

func (e *CliError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CliError) Unwrap() error {
	return e.cause
}

// NewCliError creates a new CLI error with context
func NewCliError(code, message string, details ...string) *CliError {
	err := &CliError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Context:   make(map[string]any),
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

// WithContext adds context to the error
func (e *CliError) WithContext(key string, value any) *CliError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

func (e *CliError) withCause(err error) *CliError {
	e.cause = err
	return e
}

// CategorizeError maps client failures onto stable CLI error codes.
func CategorizeError(err error) *CliError {
	if err == nil {
		return nil
	}
	var cliErr *CliError
	if errors.As(err, &cliErr) {
		return cliErr
	}
	if errors.Is(err, context.Canceled) {
		return NewCliError("OPERATION_CANCELED", "Operation was canceled").withCause(err)
	}
	if errors.Is(err, collections.ErrProgressAborted) {
		return NewCliError("PROGRESS_ABORTED", "Polling stopped", err.Error()).withCause(err)
	}
	if errors.Is(err, collections.ErrWorkspaceRequired) || errors.Is(err, collections.ErrRunIDRequired) {
		return NewCliError("INVALID_ARGUMENT", err.Error()).withCause(err)
	}
	if apiErr, ok := collections.AsAPIError(err); ok {
		return categorizeAPIError(apiErr).withCause(err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewCliError("OPERATION_TIMEOUT", "Operation timed out").withCause(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return NewCliError("NETWORK_ERROR", "Network connection failed", err.Error()).withCause(err)
	}
	return NewCliError("COMMAND_FAILED", err.Error()).withCause(err)
}

func categorizeAPIError(apiErr *collections.APIError) *CliError {
	var out *CliError
	switch {
	case apiErr.Code == collections.CodeTimeout:
		out = NewCliError("COLLECTION_TIMEOUT", apiErr.Message)
		out.WithContext("elapsed", apiErr.Elapsed.String())
	case apiErr.Status == 401 || apiErr.Status == 403:
		out = NewCliError("AUTH_ERROR", "Authentication failed", apiErr.Message)
	case apiErr.Status == 503:
		out = NewCliError("SERVICE_UNAVAILABLE", "Service unavailable", apiErr.Message)
	default:
		out = NewCliError("API_ERROR", apiErr.Message)
	}
	out.WithContext("status", apiErr.Status)
	if apiErr.Code != "" {
		out.WithContext("code", apiErr.Code)
	}
	return out
}

// FormatError formats errors based on output mode
func FormatError(err error, mode Mode) string {
	if err == nil {
		return ""
	}
	cliErr := CategorizeError(err)
	if mode == ModeTUI {
		return formatErrorTUI(cliErr)
	}
	return formatErrorJSON(cliErr)
}

func formatErrorJSON(err *CliError) string {
	body := map[string]any{
		"error":   err.Message,
		"code":    err.Code,
		"details": err.Details,
	}
	if len(err.Context) > 0 {
		body["context"] = err.Context
	}
	data, marshalErr := json.MarshalIndent(body, "", "  ")
	if marshalErr != nil {
		return `{"error": "JSON marshaling failed", "details": ""}`
	}
	return string(data)
}

var (
	errorMessageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	errorDetailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Italic(true)
)

func formatErrorTUI(err *CliError) string {
	result := fmt.Sprintf("%s %s", errorIcon(err), errorMessageStyle.Render(err.Message))
	if err.Details != "" {
		result += "\n" + errorDetailStyle.Render("Details: "+err.Details)
	}
	return result
}

func errorIcon(err *CliError) string {
	switch err.Code {
	case "NETWORK_ERROR", "SERVICE_UNAVAILABLE":
		return "🌐"
	case "AUTH_ERROR":
		return "🔐"
	case "COLLECTION_TIMEOUT", "OPERATION_TIMEOUT":
		return "⏰"
	default:
		return "❌"
	}
}

// OutputError writes err to w in the format of mode.
func OutputError(w io.Writer, err error, mode Mode) {
	if err == nil {
		return
	}
	fmt.Fprintln(w, FormatError(err, mode))
}

// WriteJSON writes v as indented JSON, colorized when color is set.
func WriteJSON(w io.Writer, v any, color bool) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	data = pretty.Pretty(data)
	if color {
		data = pretty.Color(data, nil)
	}
	_, err = w.Write(data)
	return err
}

// ValidateRequired validates that a required string value is not empty
func ValidateRequired(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return NewCliError("REQUIRED_FIELD", fmt.Sprintf("%s is required", fieldName))
	}
	return nil
}

// Truncate returns s cut to maxLength characters, ending in "..." when room allows.
func Truncate(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return s[:maxLength]
	}
	return s[:maxLength-3] + "..."
}

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}

// Pluralize returns singular or plural form based on count
func Pluralize(count int, singular, plural string) string {
	if count == 1 {
		return singular
	}
	return plural
}
