// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// progressBarWidth is the number of cells in the progress bar.
const progressBarWidth = 30

// View implements tea.Model and renders the complete TUI.
func (m Model) View() string {
	sections := []string{
		m.renderHeader(),
		m.renderProgress(),
		m.renderTableHeader(),
		m.renderTableBody(),
		m.renderFooter(),
	}

	if m.runErr != nil {
		errMsg := m.styles.Error.Render(fmt.Sprintf("Error: %s", m.runErr.Error()))
		sections = append([]string{errMsg}, sections...)
	}

	view := strings.Join(sections, "\n")

	if m.activeModal != ModalNone {
		var modalContent string
		switch m.activeModal {
		case ModalDetail:
			modalContent = m.renderDetailModal()
		case ModalHelp:
			modalContent = m.renderHelpModal()
		default:
			modalContent = m.styles.ModalBorder.Render("Unknown modal")
		}
		view = lipgloss.JoinVertical(lipgloss.Left, view, modalContent)
	}

	return view
}

// renderHeader renders the title line with the run id and search query.
func (m Model) renderHeader() string {
	title := m.styles.HeaderTitle.Render("repstudy collect")

	info := "starting..."
	if m.runID != 0 {
		info = fmt.Sprintf("run #%d", m.runID)
	}
	if m.query != "" {
		info += fmt.Sprintf(" | query: %s", m.query)
	}

	return m.styles.Header.Render(title + "  " + m.styles.HeaderInfo.Render(info))
}

// renderProgress renders the progress bar and counters.
func (m Model) renderProgress() string {
	processed := len(m.outcomes)

	counts := fmt.Sprintf(" %d/%d items | %d pages | ", processed, m.target, m.pages)
	ok := m.styles.StatusSuccess.Render(fmt.Sprintf("%s %d", iconSuccess, m.succeeded))
	failed := m.styles.StatusFailure.Render(fmt.Sprintf("%s %d", iconFailure, m.failed))
	elapsed := m.styles.HeaderInfo.Render(fmt.Sprintf(" | elapsed %s", m.now().Sub(m.startedAt).Truncate(time.Second)))

	return m.styles.StatusBar.Render(renderBar(m.styles, processed, m.target) + counts + ok + " " + failed + elapsed)
}

// renderBar draws a fixed-width bar. Overshoot past target renders full.
func renderBar(s Styles, processed, target int) string {
	filled := 0
	if target > 0 {
		filled = min(processed*progressBarWidth/target, progressBarWidth)
	}
	return "[" +
		s.ProgressFilled.Render(strings.Repeat("█", filled)) +
		s.ProgressEmpty.Render(strings.Repeat("░", progressBarWidth-filled)) +
		"]"
}

// renderFooter renders the footer with keybinding hints and run status.
func (m Model) renderFooter() string {
	bindings := []struct {
		key  string
		desc string
	}{
		{"j/k", "navigate"},
		{"pgup/pgdn", "page"},
		{"f", "follow"},
		{"enter", "details"},
		{"?", "help"},
		{"q", "quit"},
	}

	var parts []string
	for i, b := range bindings {
		key := m.styles.HelpKey.Render(b.key)
		desc := m.styles.HelpDesc.Render(b.desc)
		parts = append(parts, fmt.Sprintf("%s %s", key, desc))
		if i < len(bindings)-1 {
			parts = append(parts, m.styles.HelpDesc.Render(" | "))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.styles.StatusBar.Render(strings.Join(parts, "")),
		m.renderStatusBar(),
	)
}

// renderStatusBar renders the run state and the latest status message.
func (m Model) renderStatusBar() string {
	var parts []string

	switch {
	case m.done && m.runErr != nil:
		parts = append(parts, m.styles.Error.Render("Failed: "+m.summary.Reason.String()))
	case m.done:
		parts = append(parts, m.styles.Success.Render("Done: "+m.summary.Reason.String()))
	case m.cancelling:
		parts = append(parts, m.styles.Warning.Render("Cancelling..."))
	default:
		parts = append(parts, m.styles.HelpKey.Render("Collecting..."))
	}

	if m.statusMessage != "" {
		parts = append(parts, m.styles.HelpDesc.Render(" | "))
		parts = append(parts, m.styles.HelpDesc.Render(m.statusMessage))
	}

	return m.styles.StatusBar.Render(strings.Join(parts, ""))
}
