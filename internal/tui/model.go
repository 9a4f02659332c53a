// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

// Package tui provides the Bubble Tea progress view for collection runs.
package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llbbl/repstudy/internal/collect"
	"github.com/llbbl/repstudy/internal/github"
	"github.com/llbbl/repstudy/internal/pipeline"
)

// ModalType represents the type of modal currently displayed.
type ModalType int

const (
	ModalNone ModalType = iota
	ModalDetail
	ModalHelp
)

// Model is the progress view of a single collection run.
type Model struct {
	// Source
	msgCh  <-chan collect.Msg
	cancel context.CancelFunc
	query  string

	// Run state
	runID     int64
	target    int
	pages     int
	outcomes  []pipeline.Outcome[github.Repository]
	succeeded int
	failed    int
	startedAt time.Time
	now       func() time.Time

	// Completion
	done       bool
	cancelling bool
	summary    pipeline.RunSummary[github.Repository]
	runErr     error

	// UI State
	cursor         int
	viewportOffset int  // scroll offset for table pagination
	follow         bool // keep the cursor on the newest outcome
	activeModal    ModalType

	// Dimensions
	width, height int

	statusMessage string

	styles Styles
}

// collectMsg wraps a progress message from the collector.
type collectMsg struct {
	msg collect.Msg
}

// channelClosedMsg is sent once the collector's channel is closed.
type channelClosedMsg struct{}

// NewModel creates a progress view fed by msgCh. cancel is called when the
// user asks to stop the run.
func NewModel(msgCh <-chan collect.Msg, cancel context.CancelFunc, query string) Model {
	return Model{
		msgCh:     msgCh,
		cancel:    cancel,
		query:     query,
		follow:    true,
		startedAt: time.Now(),
		now:       time.Now,
		styles:    DefaultStyles(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.listenForCollectMsgs()
}

// listenForCollectMsgs returns a command that waits for the next collector message.
func (m Model) listenForCollectMsgs() tea.Cmd {
	if m.msgCh == nil {
		return nil
	}
	ch := m.msgCh
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return channelClosedMsg{}
		}
		return collectMsg{msg: msg}
	}
}

// Done reports whether the run has finished.
func (m Model) Done() bool {
	return m.done
}

// RunID returns the identifier of the run record, zero until started.
func (m Model) RunID() int64 {
	return m.runID
}

// Summary returns the final run summary. It is only meaningful once Done.
func (m Model) Summary() pipeline.RunSummary[github.Repository] {
	return m.summary
}

// Err returns the error the run ended with, if any.
func (m Model) Err() error {
	return m.runErr
}

// Update implements tea.Model - see update.go for implementation.

// View implements tea.Model - see view.go for implementation.
