package styles

import (
	"github.com/buemura/advaudit/pkg/types"
	"github.com/charmbracelet/lipgloss"
)

// Severity and status colors.
var (
	ColorCritical = lipgloss.Color("#FF0000")
	ColorHigh     = lipgloss.Color("#FF6600")
	ColorLow      = lipgloss.Color("#0099FF")
	ColorPass     = lipgloss.Color("#00CC00")
	ColorIgnore   = lipgloss.Color("#FFCC00")
	ColorMuted    = lipgloss.Color("#666666")
	ColorAccent   = lipgloss.Color("#7D56F4")
)

// Styles used across TUI views.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(ColorAccent).
			Padding(0, 1)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent).
			MarginBottom(1)

	BorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorAccent).
			Padding(1, 2)

	SelectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	CursorStyle = lipgloss.NewStyle().
			Foreground(ColorAccent)

	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	SeverityCriticalStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorCritical)
	SeverityHighStyle     = lipgloss.NewStyle().Bold(true).Foreground(ColorHigh)
	SeverityLowStyle      = lipgloss.NewStyle().Foreground(ColorLow)

	StatusPassStyle   = lipgloss.NewStyle().Foreground(ColorPass)
	StatusFailStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorCritical)
	StatusSkipStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
	StatusIgnoreStyle = lipgloss.NewStyle().Foreground(ColorIgnore)
)

// SeverityStyle returns the appropriate style for a severity level.
func SeverityStyle(severity types.Severity) lipgloss.Style {
	switch severity {
	case types.SeverityCritical:
		return SeverityCriticalStyle
	case types.SeverityHigh:
		return SeverityHighStyle
	case types.SeverityLow:
		return SeverityLowStyle
	default:
		return lipgloss.NewStyle()
	}
}

// StatusStyle returns the style of a check status.
func StatusStyle(status types.Status) lipgloss.Style {
	switch status {
	case types.StatusPass:
		return StatusPassStyle
	case types.StatusFail:
		return StatusFailStyle
	case types.StatusIgnore:
		return StatusIgnoreStyle
	default:
		return StatusSkipStyle
	}
}

// ScoreStyle colors an audit score: green from 80, yellow from 50.
func ScoreStyle(score int) lipgloss.Style {
	switch {
	case score >= 80:
		return StatusPassStyle.Bold(true)
	case score >= 50:
		return StatusIgnoreStyle.Bold(true)
	default:
		return StatusFailStyle
	}
}
