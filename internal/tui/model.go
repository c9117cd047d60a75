package tui

import (
	"context"

	"github.com/buemura/advaudit/internal/audit"
	"github.com/buemura/advaudit/internal/check"
	"github.com/buemura/advaudit/internal/issue"
	"github.com/buemura/advaudit/internal/output"
	"github.com/buemura/advaudit/internal/tui/views"
	tea "github.com/charmbracelet/bubbletea"
)

// appState represents which view is currently active.
type appState int

const (
	stateMenu    appState = iota // Check selection menu
	stateScan                    // Audit in progress
	stateResults                 // Results display
)

// Model is the root Bubble Tea model that manages view transitions.
type Model struct {
	state   appState
	runner  *audit.Runner
	tracker *issue.Tracker
	opts    audit.Options
	defs    map[string]check.Definition
	width   int
	height  int

	// Sub-models for each view.
	menu    views.MenuModel
	scan    views.ScanModel
	results views.ResultsModel
}

// NewModel creates a root model listing every registered check. tracker
// may be nil, in which case every reported issue is treated as open.
func NewModel(runner *audit.Runner, tracker *issue.Tracker, opts audit.Options) Model {
	defs := runner.Definitions(context.Background())
	entries := runner.Executor().Registry().All()
	items := make([]views.CheckItem, 0, len(entries))
	for _, e := range entries {
		def := defs[e.Definition.ID]
		items = append(items, views.CheckItem{
			ID:       def.ID,
			Label:    def.Label,
			Category: def.Category,
			Severity: def.Severity,
			Enabled:  def.Enabled,
		})
	}

	return Model{
		state:   stateMenu,
		runner:  runner,
		tracker: tracker,
		opts:    opts,
		defs:    defs,
		menu:    views.NewMenuModel(items),
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return m.menu.Init()
}

// Update handles messages and manages state transitions.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			return m.handleBack()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	switch m.state {
	case stateMenu:
		return m.updateMenu(msg)
	case stateScan:
		return m.updateScan(msg)
	case stateResults:
		return m.updateResults(msg)
	}

	return m, nil
}

// View renders the current view.
func (m Model) View() string {
	switch m.state {
	case stateMenu:
		return m.menu.View()
	case stateScan:
		return m.scan.View()
	case stateResults:
		return m.results.View()
	}
	return ""
}

func (m Model) handleBack() (tea.Model, tea.Cmd) {
	if m.state == stateResults {
		m.state = stateMenu
	}
	return m, nil
}

func (m Model) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "enter" {
		ids := m.menu.Selected()
		if len(ids) == 0 {
			if cur := m.menu.Current(); cur != nil {
				ids = []string{cur.ID}
			}
		}
		if len(ids) == 0 {
			return m, nil
		}
		m.scan = views.NewScanModel(m.runner, ids, m.opts)
		m.state = stateScan
		return m, m.scan.Init()
	}

	updated, cmd := m.menu.Update(msg)
	m.menu = updated.(views.MenuModel)
	return m, cmd
}

func (m Model) updateScan(msg tea.Msg) (tea.Model, tea.Cmd) {
	if done, ok := msg.(views.AuditCompleteMsg); ok {
		doc, err := m.document(done)
		if err != nil {
			doc = output.NewDocument(done.Report, audit.Score(done.Report.Results, nil), m.defs, nil)
		}
		m.results = views.NewResultsModel(doc)
		m.state = stateResults
		return m, nil
	}

	updated, cmd := m.scan.Update(msg)
	m.scan = updated.(views.ScanModel)
	return m, cmd
}

func (m Model) document(done views.AuditCompleteMsg) (output.Document, error) {
	ctx := context.Background()
	if m.tracker == nil {
		return output.Build(ctx, done.Report, m.defs, nil)
	}
	return output.Build(ctx, done.Report, m.defs, m.tracker)
}

func (m Model) updateResults(msg tea.Msg) (tea.Model, tea.Cmd) {
	updated, cmd := m.results.Update(msg)
	m.results = updated.(views.ResultsModel)
	return m, cmd
}
