package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/buemura/advaudit/internal/audit"
	"github.com/buemura/advaudit/internal/tui/styles"
	"github.com/buemura/advaudit/pkg/types"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// AuditCompleteMsg is sent when an audit batch finishes. Err carries
// issue or storage failures; Report is still usable when it is set.
type AuditCompleteMsg struct {
	Report types.Report
	Err    error
}

// checkDoneMsg reports one finished check.
type checkDoneMsg struct {
	done   int
	total  int
	result types.CheckResult
}

// ScanModel is the view model for the audit progress view.
type ScanModel struct {
	spinner  spinner.Model
	runner   *audit.Runner
	ids      []string
	opts     audit.Options
	updates  chan checkDoneMsg
	done     int
	last     types.CheckResult
	finished bool
	err      string
}

// NewScanModel creates a progress view that runs ids through runner.
func NewScanModel(runner *audit.Runner, ids []string, opts audit.Options) ScanModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.ColorAccent)

	return ScanModel{
		spinner: sp,
		runner:  runner,
		ids:     ids,
		opts:    opts,
		updates: make(chan checkDoneMsg, len(ids)),
	}
}

// Init starts the spinner and launches the audit.
func (m ScanModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.runAudit(), m.waitForCheck())
}

// Update handles spinner ticks, per-check progress and completion.
func (m ScanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case checkDoneMsg:
		m.done = msg.done
		m.last = msg.result
		return m, m.waitForCheck()

	case AuditCompleteMsg:
		m.finished = true
		if msg.Err != nil {
			m.err = msg.Err.Error()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the audit progress.
func (m ScanModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("advaudit - Interactive Mode"))
	b.WriteString("\n\n")

	switch {
	case m.finished && m.err != "":
		b.WriteString(styles.ErrorStyle.Render(fmt.Sprintf("Audit finished with errors: %s", m.err)))
	case m.finished:
		b.WriteString(fmt.Sprintf("Audit complete! Ran %d checks.\n", len(m.ids)))
	default:
		b.WriteString(fmt.Sprintf("%s Running %d checks... %d done\n",
			m.spinner.View(), len(m.ids), m.done))
		if m.last.CheckID != "" {
			b.WriteString(fmt.Sprintf("  Last: %s %s\n",
				styles.SelectedStyle.Render(m.last.CheckID),
				styles.StatusStyle(m.last.Status).Render(string(m.last.Status))))
		}
	}

	b.WriteString("\n")
	b.WriteString(styles.HelpStyle.Render("ctrl+c quit"))

	return b.String()
}

// Done returns how many checks have finished.
func (m ScanModel) Done() int {
	return m.done
}

func (m ScanModel) runAudit() tea.Cmd {
	runner, ids, opts, updates := m.runner, m.ids, m.opts, m.updates
	return func() tea.Msg {
		defer close(updates)
		opts.Progress = func(done, total int, res types.CheckResult) {
			updates <- checkDoneMsg{done: done, total: total, result: res}
		}
		report, err := runner.Run(context.Background(), ids, opts)
		return AuditCompleteMsg{Report: report, Err: err}
	}
}

// waitForCheck blocks until the next check finishes. It yields nil once
// the audit is over.
func (m ScanModel) waitForCheck() tea.Cmd {
	updates := m.updates
	return func() tea.Msg {
		msg, ok := <-updates
		if !ok {
			return nil
		}
		return msg
	}
}
