package views

import (
	"fmt"
	"os"
	"strings"

	"github.com/buemura/advaudit/internal/output"
	"github.com/buemura/advaudit/internal/tui/styles"
	"github.com/buemura/advaudit/pkg/types"
	tea "github.com/charmbracelet/bubbletea"
)

// ExportFile is where the results view writes its JSON export.
const ExportFile = "advaudit-report.json"

// resultOrder lists statuses in the order the results table shows them.
var resultOrder = []types.Status{types.StatusFail, types.StatusSkip, types.StatusIgnore, types.StatusPass}

// ResultsModel is the view model for displaying an audit report.
type ResultsModel struct {
	doc       output.Document
	rows      []output.Row
	cursor    int
	offset    int
	maxRows   int
	exported  bool
	exportErr string
}

// NewResultsModel creates a results view from a report document.
func NewResultsModel(doc output.Document) ResultsModel {
	var rows []output.Row
	for _, s := range resultOrder {
		rows = append(rows, doc.Rows(s)...)
	}
	return ResultsModel{
		doc:     doc,
		rows:    rows,
		maxRows: 20,
	}
}

// Init returns nil (no initial command).
func (m ResultsModel) Init() tea.Cmd {
	return nil
}

// Update handles key events for scrolling and export.
func (m ResultsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.maxRows {
					m.offset = m.cursor - m.maxRows + 1
				}
			}
		case "e":
			m.exportJSON()
		case "q":
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the results table.
func (m ResultsModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("advaudit - Audit Results"))
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		b.WriteString("No checks were run.\n")
	} else {
		b.WriteString(m.summaryLine())
		b.WriteString("\n\n")

		header := fmt.Sprintf("  %-7s %-9s %-28s %s", "STATUS", "SEVERITY", "CHECK", "REASON")
		b.WriteString(styles.HeaderStyle.Render(header))
		b.WriteString("\n")
		b.WriteString(strings.Repeat("─", 80))
		b.WriteString("\n")

		end := m.offset + m.maxRows
		if end > len(m.rows) {
			end = len(m.rows)
		}

		for i := m.offset; i < end; i++ {
			row := m.rows[i]
			cursor := "  "
			if i == m.cursor {
				cursor = styles.CursorStyle.Render("> ")
			}

			status := styles.StatusStyle(row.Result.Status).Render(fmt.Sprintf("%-7s", row.Result.Status))
			severity := styles.SeverityStyle(row.Check.Severity).Render(fmt.Sprintf("%-9s", row.Check.Severity))
			b.WriteString(fmt.Sprintf("%s%s %s %-28s %s\n",
				cursor, status, severity, truncate(row.Check.ID, 28), truncate(row.Result.Reason, 40)))
		}

		if len(m.rows) > m.maxRows {
			b.WriteString(fmt.Sprintf("\n  Showing %d-%d of %d checks\n",
				m.offset+1, end, len(m.rows)))
		}

		b.WriteString("\n")
		b.WriteString(m.detailView(m.rows[m.cursor]))
	}

	if m.exported {
		b.WriteString("\n")
		b.WriteString(styles.SelectedStyle.Render("Report exported to " + ExportFile))
	}
	if m.exportErr != "" {
		b.WriteString("\n")
		b.WriteString(styles.ErrorStyle.Render(m.exportErr))
	}

	b.WriteString("\n")
	b.WriteString(styles.HelpStyle.Render("↑/↓ scroll • e export JSON • esc back • q quit"))

	return b.String()
}

func (m ResultsModel) summaryLine() string {
	parts := make([]string, 0, len(resultOrder))
	for _, s := range resultOrder {
		if c := m.doc.Count(s); c > 0 {
			parts = append(parts, styles.StatusStyle(s).Render(fmt.Sprintf("%s: %d", s, c)))
		}
	}
	score := styles.ScoreStyle(m.doc.Score).Render(fmt.Sprintf("%d", m.doc.Score))
	return fmt.Sprintf("Score: %s  Total: %d checks  [%s]", score, len(m.rows), strings.Join(parts, "  "))
}

func (m ResultsModel) detailView(row output.Row) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Check: %s (%s)\nCategory: %s\nStatus: %s\nReason: %s",
		row.Check.Label, row.Check.ID, row.Check.Category, row.Result.Status, row.Result.Reason))

	if row.Result.Status == types.StatusFail {
		open := row.OpenIssues()
		b.WriteString(fmt.Sprintf("\nOpen issues: %d", len(open)))
		for _, i := range open {
			b.WriteString(fmt.Sprintf("\n  • %s", i.Title))
		}
	}

	return styles.BorderStyle.Render(b.String())
}

func (m *ResultsModel) exportJSON() {
	f, err := os.Create(ExportFile)
	if err != nil {
		m.exportErr = fmt.Sprintf("export failed: %v", err)
		return
	}
	defer f.Close()

	if err := (&output.JSONFormatter{}).Format(f, m.doc); err != nil {
		m.exportErr = fmt.Sprintf("export failed: %v", err)
		return
	}

	m.exported = true
	m.exportErr = ""
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
