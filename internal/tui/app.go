package tui

import (
	"fmt"

	"github.com/buemura/advaudit/internal/audit"
	"github.com/buemura/advaudit/internal/issue"
	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the interactive TUI over the given runner.
func Run(runner *audit.Runner, tracker *issue.Tracker, opts audit.Options) error {
	m := NewModel(runner, tracker, opts)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
