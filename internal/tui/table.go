// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/llbbl/repstudy/internal/github"
	"github.com/llbbl/repstudy/internal/pipeline"
)

// reservedRows is the number of lines used by everything except table rows.
const reservedRows = 8

// Column widths for the table layout.
const (
	colWidthIndex    = 5
	colWidthStatus   = 3
	colWidthName     = 40
	colWidthDuration = 9
	colWidthReason   = 40
)

// Status icons for outcomes.
const (
	iconSuccess = "\u2713" // ✓ (check mark)
	iconFailure = "\u2717" // ✗ (ballot x)
)

// buildTableHeader builds the table header row content string.
func buildTableHeader() string {
	return fmt.Sprintf("%*s %-*s %-*s %*s  %-*s",
		colWidthIndex, "#",
		colWidthStatus, " ",
		colWidthName, "REPOSITORY",
		colWidthDuration, "TIME",
		colWidthReason, "REASON",
	)
}

// renderTableHeader renders the column header line.
func (m Model) renderTableHeader() string {
	return m.styles.TableHeader.Render(buildTableHeader())
}

// renderTableBody renders the visible slice of the outcome log.
func (m Model) renderTableBody() string {
	if len(m.outcomes) == 0 {
		return m.styles.HeaderInfo.Render("Waiting for the first repository...")
	}

	startIdx := m.viewportOffset
	endIdx := min(startIdx+m.getVisibleRows(), len(m.outcomes))

	var rows []string
	for i := startIdx; i < endIdx; i++ {
		rows = append(rows, m.renderTableRow(i, m.outcomes[i], i == m.cursor))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// renderTableRow renders a single outcome. index is zero-based.
func (m Model) renderTableRow(index int, o pipeline.Outcome[github.Repository], selected bool) string {
	icon, iconStyle := iconSuccess, m.styles.StatusSuccess
	if o.Status == pipeline.Failure {
		icon, iconStyle = iconFailure, m.styles.StatusFailure
	}

	reason := o.Reason
	if reason == "" {
		reason = "-"
	}

	row := fmt.Sprintf("%*d %-*s %-*s %*s  %-*s",
		colWidthIndex, index+1,
		colWidthStatus, iconStyle.Render(icon),
		colWidthName, truncateString(o.Item.FullName(), colWidthName),
		colWidthDuration, formatDuration(o.Duration),
		colWidthReason, truncateString(reason, colWidthReason),
	)

	style := m.styles.TableRow
	if selected {
		style = m.styles.SelectedRow
	}
	if m.width > 0 {
		style = style.Width(m.width)
	}
	return style.Render(row)
}

// getVisibleRows returns how many table rows fit in the window.
func (m Model) getVisibleRows() int {
	visible := m.height - reservedRows
	if visible < 1 {
		visible = 5
	}
	return visible
}

// ensureCursorVisible scrolls the viewport so the cursor row is shown.
func (m *Model) ensureCursorVisible() {
	visible := m.getVisibleRows()
	if m.cursor < m.viewportOffset {
		m.viewportOffset = m.cursor
	}
	if m.cursor >= m.viewportOffset+visible {
		m.viewportOffset = m.cursor - visible + 1
	}
	if m.viewportOffset < 0 {
		m.viewportOffset = 0
	}
}

// formatDuration renders d with a unit suited to its size.
func formatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "-"
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return d.Truncate(time.Second).String()
	}
}

// truncateString truncates a string to the specified length, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
