// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/llbbl/repstudy/internal/pipeline"
)

// renderDetailModal renders the details of the outcome under the cursor.
func (m Model) renderDetailModal() string {
	if m.cursor < 0 || m.cursor >= len(m.outcomes) {
		return ""
	}

	o := m.outcomes[m.cursor]
	repo := o.Item

	var content strings.Builder

	status := m.styles.StatusSuccess.Render("success")
	if o.Status == pipeline.Failure {
		status = m.styles.StatusFailure.Render("failure")
	}
	content.WriteString(fmt.Sprintf("Outcome:       %s (%s)\n", status, formatDuration(o.Duration)))
	if o.Reason != "" {
		content.WriteString(fmt.Sprintf("Reason:        %s\n", o.Reason))
	}
	content.WriteString("\n")

	language := repo.PrimaryLanguage
	if language == "" {
		language = "None"
	}
	createdAt := "Unknown"
	if !repo.CreatedAt.IsZero() {
		createdAt = repo.CreatedAt.Format("2006-01-02")
	}

	content.WriteString("Stats:\n")
	content.WriteString(fmt.Sprintf("  Stars:         %d\n", repo.Stargazers))
	content.WriteString(fmt.Sprintf("  Language:      %s\n", language))
	content.WriteString(fmt.Sprintf("  Merged PRs:    %d\n", repo.MergedPullRequests))
	content.WriteString(fmt.Sprintf("  Issues:        %d (%d closed)\n", repo.AllIssues, repo.ClosedIssues))
	content.WriteString(fmt.Sprintf("  Releases:      %d\n", repo.Releases))
	content.WriteString(fmt.Sprintf("  Created:       %s\n", createdAt))
	if repo.URL != "" {
		content.WriteString(fmt.Sprintf("  URL:           %s\n", repo.URL))
	}
	content.WriteString("\n")
	content.WriteString(m.styles.HelpKey.Render("[Esc] Close"))

	title := m.styles.ModalTitle.Render(repo.FullName())
	return m.center(m.styles.ModalBorder.Render(
		lipgloss.JoinVertical(lipgloss.Left, title, m.styles.ModalContent.Render(content.String())),
	))
}

// renderHelpModal renders the keyboard shortcut reference.
func (m Model) renderHelpModal() string {
	var lines []string

	lines = append(lines, m.styles.ModalTitle.Render("Help - Keyboard Shortcuts"))
	lines = append(lines, strings.Repeat("-", 45))

	categoryStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	formatBinding := func(key, desc string) string {
		return fmt.Sprintf("  %s  %s",
			m.styles.HelpKey.Render(fmt.Sprintf("%-13s", key)),
			m.styles.HelpDesc.Render(desc))
	}

	lines = append(lines, categoryStyle.Render("Navigation:"))
	lines = append(lines, formatBinding("j/k or Up/Dn", "Move through outcomes"))
	lines = append(lines, formatBinding("PgUp/PgDn", "Move one page"))
	lines = append(lines, formatBinding("g", "Go to first outcome"))
	lines = append(lines, formatBinding("G or f", "Follow newest outcome"))
	lines = append(lines, "")

	lines = append(lines, categoryStyle.Render("Run:"))
	lines = append(lines, formatBinding("Enter", "Outcome details"))
	lines = append(lines, formatBinding("q", "Cancel run, then quit"))
	lines = append(lines, formatBinding("Ctrl+C twice", "Quit immediately"))
	lines = append(lines, "")

	lines = append(lines, m.styles.HelpKey.Render("[Esc] Close"))

	return m.center(m.styles.ModalBorder.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
}

// center positions a rendered modal in the middle of the window.
func (m Model) center(modal string) string {
	horizontalPadding := max((m.width-lipgloss.Width(modal))/2, 0)
	verticalPadding := max((m.height-lipgloss.Height(modal))/2, 0)

	return lipgloss.NewStyle().
		MarginLeft(horizontalPadding).
		MarginTop(verticalPadding).
		Render(modal)
}
