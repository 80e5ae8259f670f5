package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/citewatch/citewatch/pkg/collections"
)

func field(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, LabelStyle.Render(label), ValueStyle.Render(value))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// RenderProgress renders task and response counters on one line.
func RenderProgress(p *collections.Progress) string {
	if p == nil {
		return MutedStyle.Render("no progress reported")
	}
	return fmt.Sprintf("%d completed · %d failed · %d responses",
		p.CompletedTasks, p.FailedTasks, p.ResponsesCollected)
}

// RenderCollectionStatus renders one run snapshot as a bordered card.
func RenderCollectionStatus(s *collections.CollectionStatus) string {
	lines := []string{
		TitleStyle.Render("Collection run"),
		field("Run", orDash(s.RunID)),
		field("Status", RenderStatus(s.Status)),
		field("Progress", RenderProgress(s.Progress)),
	}
	if s.CollectionRunID != "" {
		lines = append(lines, field("Collection", s.CollectionRunID))
	}
	if s.WorkspaceID != "" {
		lines = append(lines, field("Workspace", s.WorkspaceID))
	}
	if s.UpdatedAt != "" {
		lines = append(lines, field("Updated", s.UpdatedAt))
	}
	if s.Error != "" {
		lines = append(lines, field("Error", ErrorStyle.Render(s.Error)))
	}
	return BoxStyle.Render(strings.Join(lines, "\n"))
}

// RenderStatusLine renders a compact single-line snapshot for live updates.
func RenderStatusLine(s *collections.CollectionStatus) string {
	return fmt.Sprintf("%s %s  %s", MutedStyle.Render(orDash(s.RunID)), RenderStatus(s.Status), RenderProgress(s.Progress))
}

// RenderTrigger renders the acknowledgement of a trigger request.
func RenderTrigger(t *collections.CollectionTrigger) string {
	lines := []string{
		TitleStyle.Render("Collection triggered"),
		field("Workspace", t.WorkspaceID),
		field("Status", string(t.Status)),
		field("Run", orDash(t.RunID())),
	}
	if t.CollectionRunID != "" {
		lines = append(lines, field("Collection", t.CollectionRunID))
	}
	if t.Message != "" {
		lines = append(lines, MutedStyle.Render(t.Message))
	}
	return BoxStyle.Render(strings.Join(lines, "\n"))
}

// RenderHistory renders one page of past runs as a table.
func RenderHistory(page *collections.HistoryPage) string {
	rows := make([][]string, 0, len(page.Collections))
	for i := range page.Collections {
		entry := &page.Collections[i]
		completed := "-"
		if entry.CompletedAt != nil {
			completed = *entry.CompletedAt
		}
		rows = append(rows, []string{
			entry.CollectionRunID,
			string(entry.Status),
			entry.CreatedAt,
			completed,
			strconv.Itoa(entry.PromptCount),
			strconv.Itoa(entry.ProviderCount),
			strconv.Itoa(entry.ResponseCount),
		})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorMuted)).
		Headers("RUN", "STATUS", "CREATED", "COMPLETED", "PROMPTS", "PROVIDERS", "RESPONSES").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return TitleStyle.Padding(0, 1)
			}
			if col == 1 && row >= 0 && row < len(rows) {
				return StatusStyle(collections.RunStatus(rows[row][1])).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	footer := MutedStyle.Render(fmt.Sprintf("showing %d-%d of %d",
		min(page.Offset+1, page.Total), page.Offset+len(page.Collections), page.Total))
	if page.HasMore() {
		footer += MutedStyle.Render(" · more available")
	}
	return t.String() + "\n" + footer
}

func check(ok bool) string {
	if ok {
		return lipgloss.NewStyle().Foreground(ColorSuccess).Render("yes")
	}
	return lipgloss.NewStyle().Foreground(ColorWarning).Render("no")
}

// RenderOnboardingProgress renders workspace readiness for a first collection.
func RenderOnboardingProgress(workspaceID string, p *collections.OnboardingProgress) string {
	lines := []string{
		TitleStyle.Render("Onboarding progress"),
		field("Workspace", workspaceID),
		field("Competitors", fmt.Sprintf("%d / %d", p.CompetitorCount, p.MinCompetitors)),
		field("Prompts", fmt.Sprintf("%d / %d", p.PromptCount, p.MinPrompts)),
		field("Collection", check(p.HasCollection)),
		field("Ready", check(p.ReadyForCollection)),
		field("Complete", check(p.CanComplete)),
	}
	return BoxStyle.Render(strings.Join(lines, "\n"))
}
