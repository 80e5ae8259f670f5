package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/citewatch/citewatch/pkg/collections"
)

var (
	ColorPrimary = lipgloss.Color("#7D56F4")
	ColorSuccess = lipgloss.Color("#04B575")
	ColorWarning = lipgloss.Color("#FFB86C")
	ColorError   = lipgloss.Color("#FF6B6B")
	ColorMuted   = lipgloss.Color("#888888")

	TitleStyle = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	LabelStyle = lipgloss.NewStyle().Foreground(ColorMuted).Width(14)
	ValueStyle = lipgloss.NewStyle()
	MutedStyle = lipgloss.NewStyle().Foreground(ColorMuted).Italic(true)
	ErrorStyle = lipgloss.NewStyle().Foreground(ColorError)
	BoxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 1)
)

var statusColors = map[collections.RunStatus]lipgloss.Color{
	collections.RunStatusPending:   ColorMuted,
	collections.RunStatusRunning:   ColorPrimary,
	collections.RunStatusCompleted: ColorSuccess,
	collections.RunStatusPartial:   ColorWarning,
	collections.RunStatusFailed:    ColorError,
}

// StatusStyle returns the style for a run status; unknown values render plain.
func StatusStyle(status collections.RunStatus) lipgloss.Style {
	color, ok := statusColors[status]
	if !ok {
		return lipgloss.NewStyle().Bold(true)
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true)
}

func statusIcon(status collections.RunStatus) string {
	switch status {
	case collections.RunStatusCompleted:
		return "✔"
	case collections.RunStatusFailed:
		return "✘"
	case collections.RunStatusPartial:
		return "◐"
	case collections.RunStatusRunning:
		return "●"
	default:
		return "○"
	}
}

// RenderStatus renders a status badge such as "● running".
func RenderStatus(status collections.RunStatus) string {
	return StatusStyle(status).Render(statusIcon(status) + " " + string(status))
}
