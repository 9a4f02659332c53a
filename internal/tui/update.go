// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/llbbl/repstudy/internal/collect"
	"github.com/llbbl/repstudy/internal/pipeline"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ensureCursorVisible()
	case collectMsg:
		m.applyCollectMsg(msg.msg)
		return m, m.listenForCollectMsgs()
	case channelClosedMsg:
		m.done = true
		m.cancelling = false
	}
	return m, nil
}

// applyCollectMsg folds one collector message into the model.
func (m *Model) applyCollectMsg(msg collect.Msg) {
	switch msg.Type {
	case collect.Started:
		m.runID = msg.RunID
		m.target = msg.Target
		m.startedAt = m.now()
	case collect.PageFetched:
		m.pages = msg.Page
	case collect.ItemDone:
		m.outcomes = append(m.outcomes, msg.Outcome)
		if msg.Outcome.Status == pipeline.Success {
			m.succeeded++
		} else {
			m.failed++
		}
		if m.follow {
			m.cursor = len(m.outcomes) - 1
			m.ensureCursorVisible()
		}
	case collect.Completed, collect.Failed:
		m.done = true
		m.cancelling = false
		m.summary = msg.Summary
		m.runErr = msg.Error
		if msg.RunID != 0 {
			m.runID = msg.RunID
		}
		m.statusMessage = "Run finished, press q to exit"
	}
}

// handleKeyMsg routes key messages to the appropriate handler.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// ctrl+c while a cancel is pending forces an exit.
	if msg.String() == "ctrl+c" && (m.done || m.cancelling) {
		return m, tea.Quit
	}

	if m.activeModal != ModalNone {
		return m.handleModalKeys(msg)
	}
	return m.handleMainViewKeys(msg)
}

// handleModalKeys handles key input when a modal is active.
func (m Model) handleModalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "enter", "?":
		m.activeModal = ModalNone
	}
	return m, nil
}

// handleMainViewKeys handles key input in the outcome list.
func (m Model) handleMainViewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.done {
			return m, tea.Quit
		}
		if !m.cancelling && m.cancel != nil {
			m.cancel()
		}
		m.cancelling = true
		m.statusMessage = "Cancelling, waiting for the current item..."
		return m, nil

	// Navigation keys
	case "j", "down":
		m.follow = false
		m.cursor = max(min(m.cursor+1, len(m.outcomes)-1), 0)
		m.ensureCursorVisible()

	case "k", "up":
		m.follow = false
		m.cursor = max(m.cursor-1, 0)
		m.ensureCursorVisible()

	case "pgdown":
		m.follow = false
		m.cursor = max(min(m.cursor+m.getVisibleRows(), len(m.outcomes)-1), 0)
		m.ensureCursorVisible()

	case "pgup":
		m.follow = false
		m.cursor = max(m.cursor-m.getVisibleRows(), 0)
		m.ensureCursorVisible()

	case "g":
		// Go to top
		m.follow = false
		m.cursor = 0
		m.ensureCursorVisible()

	case "G", "f":
		// Go to bottom and keep following new outcomes
		m.follow = true
		m.cursor = max(len(m.outcomes)-1, 0)
		m.ensureCursorVisible()

	case "enter":
		if len(m.outcomes) > 0 {
			m.activeModal = ModalDetail
		}

	case "?":
		m.activeModal = ModalHelp
	}
	return m, nil
}
