package tui

import (
	"context"
	"testing"

	"github.com/buemura/advaudit/internal/audit"
	"github.com/buemura/advaudit/internal/check"
	"github.com/buemura/advaudit/internal/issue"
	"github.com/buemura/advaudit/internal/store"
	"github.com/buemura/advaudit/internal/tui/views"
	"github.com/buemura/advaudit/pkg/types"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func definition(id string, enabled bool, result types.CheckResult) check.Definition {
	return check.Definition{
		ID:       id,
		Label:    "check " + id,
		Category: "security",
		Severity: types.SeverityHigh,
		Enabled:  enabled,
		Factory: func() (check.Check, error) {
			return check.CheckFunc(func(context.Context, check.Request) (*types.CheckResult, error) {
				r := result
				return &r, nil
			}), nil
		},
	}
}

func newTestRunner(t *testing.T) (*audit.Runner, *issue.Tracker) {
	t.Helper()
	reg := check.NewRegistry()
	require.NoError(t, reg.RegisterAll([]check.Definition{
		definition("alpha", true, types.Pass("alpha", "ok")),
		definition("beta", true, types.Fail("beta", "bad", map[string]types.IssueDetails{"x": {}})),
		definition("gamma", false, types.Pass("gamma", "ok")),
	}))
	mem := store.NewMemory()
	logger := zaptest.NewLogger(t)
	tracker := issue.NewTracker(mem, logger)
	exec := check.NewExecutor(reg, nil, check.WithSettings(mem), check.WithLogger(logger))
	return audit.NewRunner(exec, tracker, mem, logger), tracker
}

func newTestModel(t *testing.T) Model {
	runner, tracker := newTestRunner(t)
	return NewModel(runner, tracker, audit.Options{})
}

func TestNewModelStartsAtMenuState(t *testing.T) {
	m := newTestModel(t)
	assert.Equal(t, stateMenu, m.state)
}

func TestNewModelPopulatesMenuItems(t *testing.T) {
	m := newTestModel(t)
	items := m.menu.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "alpha", items[0].ID)
	assert.False(t, items[2].Enabled)
	assert.Equal(t, []string{"alpha", "beta"}, m.menu.Selected())
}

func TestModelViewRendersMenuByDefault(t *testing.T) {
	m := newTestModel(t)
	view := m.View()
	assert.Contains(t, view, "advaudit")
	assert.Contains(t, view, "Select checks to run")
}

func TestModelCtrlCQuits(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.NotNil(t, cmd)
}

func TestModelEnterStartsAudit(t *testing.T) {
	m := newTestModel(t)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	model := updated.(Model)
	assert.Equal(t, stateScan, model.state)
	assert.NotNil(t, cmd)
	assert.Contains(t, model.View(), "Running 2 checks")
}

func TestModelAuditCompleteShowsResults(t *testing.T) {
	runner, tracker := newTestRunner(t)
	m := NewModel(runner, tracker, audit.Options{})
	m.state = stateScan

	report, err := runner.Run(context.Background(), []string{"alpha", "beta"}, audit.Options{})
	require.NoError(t, err)

	updated, _ := m.Update(views.AuditCompleteMsg{Report: report})
	model := updated.(Model)
	assert.Equal(t, stateResults, model.state)
	view := model.View()
	assert.Contains(t, view, "Audit Results")
	assert.Contains(t, view, "Score: 50")
}

func TestModelAuditCompleteWithoutTracker(t *testing.T) {
	runner, _ := newTestRunner(t)
	m := NewModel(runner, nil, audit.Options{})
	m.state = stateScan

	report, err := runner.Run(context.Background(), []string{"alpha", "beta"}, audit.Options{})
	require.NoError(t, err)

	updated, _ := m.Update(views.AuditCompleteMsg{Report: report})
	model := updated.(Model)
	assert.Equal(t, stateResults, model.state)
	assert.Contains(t, model.View(), "Score: 50")
}

func TestModelEscFromResultsReturnsToMenu(t *testing.T) {
	m := newTestModel(t)
	m.state = stateResults

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEscape})
	model := updated.(Model)
	assert.Equal(t, stateMenu, model.state)
}

func TestModelEscDuringScanIsIgnored(t *testing.T) {
	m := newTestModel(t)
	m.state = stateScan

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEscape})
	model := updated.(Model)
	assert.Equal(t, stateScan, model.state)
}

func TestModelWindowSize(t *testing.T) {
	m := newTestModel(t)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	model := updated.(Model)
	assert.Equal(t, 120, model.width)
	assert.Equal(t, 40, model.height)
}
