// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/llbbl/repstudy/internal/collect"
	"github.com/llbbl/repstudy/internal/github"
	"github.com/llbbl/repstudy/internal/pipeline"
)

func TestView_Progress(t *testing.T) {
	var cancelled bool
	m := newTestModel(&cancelled)
	m, _ = send(t, m, collectMsg{collect.Msg{Type: collect.Started, RunID: 3, Target: 10}})
	m, _ = send(t, m, collectMsg{collect.Msg{Type: collect.PageFetched, Page: 2}})
	m, _ = send(t, m, collectMsg{outcome("alpha", pipeline.Success, "")})
	m, _ = send(t, m, collectMsg{outcome("beta", pipeline.Failure, "clone failed")})

	view := m.View()
	assert.Contains(t, view, "repstudy collect")
	assert.Contains(t, view, "run #3")
	assert.Contains(t, view, "query: stars:>1000")
	assert.Contains(t, view, "2/10 items | 2 pages")
	assert.Contains(t, view, "testowner/alpha")
	assert.Contains(t, view, "clone failed")
	assert.Contains(t, view, "Collecting...")
}

func TestView_WaitingForFirstItem(t *testing.T) {
	var cancelled bool
	m := newTestModel(&cancelled)

	view := m.View()
	assert.Contains(t, view, "starting...")
	assert.Contains(t, view, "Waiting for the first repository...")
}

func TestView_Done(t *testing.T) {
	var cancelled bool
	m := newTestModel(&cancelled)
	m, _ = send(t, m, collectMsg{collect.Msg{
		Type:    collect.Completed,
		Summary: pipeline.RunSummary[github.Repository]{Reason: pipeline.TargetReached},
	}})

	view := m.View()
	assert.Contains(t, view, "Done: target_reached")
	assert.Contains(t, view, "press q to exit")
}

func TestRenderBar(t *testing.T) {
	s := DefaultStyles()

	tests := []struct {
		name      string
		processed int
		target    int
		filled    int
	}{
		{"empty", 0, 10, 0},
		{"half", 5, 10, 15},
		{"full", 10, 10, 30},
		{"overshoot", 12, 10, 30},
		{"zero target", 3, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := renderBar(s, tt.processed, tt.target)
			assert.Equal(t, tt.filled, strings.Count(bar, "█"))
			assert.Equal(t, progressBarWidth-tt.filled, strings.Count(bar, "░"))
		})
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "-", formatDuration(0))
	assert.Equal(t, "250ms", formatDuration(250*time.Millisecond))
	assert.Equal(t, "1.5s", formatDuration(1500*time.Millisecond))
	assert.Equal(t, "2m5s", formatDuration(125*time.Second+300*time.Millisecond))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abcdefg...", truncateString("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", truncateString("abcdef", 2))
}
