// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

package tui

import "github.com/charmbracelet/lipgloss"

// Status colors for outcomes.
const (
	ColorSuccess = lipgloss.Color("#00FF00") // Green - processed
	ColorFailure = lipgloss.Color("#FF4500") // Orange-red - failed
	ColorPending = lipgloss.Color("#FFFF00") // Yellow - running/cancelling
)

// UI colors for general interface elements.
const (
	ColorPrimary   = lipgloss.Color("#7D56F4") // Purple accent
	ColorSecondary = lipgloss.Color("#FFFDF5") // Off-white text
	ColorMuted     = lipgloss.Color("#626262") // Muted text
	ColorBorder    = lipgloss.Color("#383838") // Border color
)

// Styles contains all lipgloss style definitions for the TUI.
type Styles struct {
	// Header styles
	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderInfo  lipgloss.Style

	// Progress bar
	ProgressFilled lipgloss.Style
	ProgressEmpty  lipgloss.Style

	// Table styles
	TableHeader lipgloss.Style
	TableRow    lipgloss.Style
	SelectedRow lipgloss.Style

	// Status indicators
	StatusSuccess lipgloss.Style
	StatusFailure lipgloss.Style

	// Modal styles
	ModalBorder  lipgloss.Style
	ModalTitle   lipgloss.Style
	ModalContent lipgloss.Style

	// Help styles
	HelpKey  lipgloss.Style
	HelpDesc lipgloss.Style

	// Footer bar
	StatusBar lipgloss.Style

	// Message styles
	Error   lipgloss.Style
	Warning lipgloss.Style
	Success lipgloss.Style
}

// DefaultStyles creates a new Styles instance with default styling.
func DefaultStyles() Styles {
	return Styles{
		// Header
		Header: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(ColorBorder).
			BorderBottom(true).
			Padding(0, 1),

		HeaderTitle: lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true),

		HeaderInfo: lipgloss.NewStyle().
			Foreground(ColorMuted),

		// Progress
		ProgressFilled: lipgloss.NewStyle().
			Foreground(ColorPrimary),

		ProgressEmpty: lipgloss.NewStyle().
			Foreground(ColorBorder),

		// Table
		TableHeader: lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(ColorBorder).
			BorderBottom(true).
			Padding(0, 1),

		TableRow: lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Padding(0, 1),

		SelectedRow: lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Background(ColorPrimary).
			Bold(true).
			Padding(0, 1),

		// Status indicators
		StatusSuccess: lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true),

		StatusFailure: lipgloss.NewStyle().
			Foreground(ColorFailure).
			Bold(true),

		// Modal
		ModalBorder: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(1, 2),

		ModalTitle: lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true).
			MarginBottom(1),

		ModalContent: lipgloss.NewStyle().
			Foreground(ColorSecondary),

		// Help
		HelpKey: lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true),

		HelpDesc: lipgloss.NewStyle().
			Foreground(ColorMuted),

		StatusBar: lipgloss.NewStyle().
			Padding(0, 1),

		// Messages
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(ColorPending).
			Bold(true),

		Success: lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true),
	}
}

// DefaultStyle is the default style instance for the TUI.
var DefaultStyle = DefaultStyles()
