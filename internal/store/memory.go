package store

import (
	"context"
	"errors"
	"maps"
	"sync"

	"github.com/buemura/advaudit/internal/audit"
	"github.com/buemura/advaudit/internal/check"
	"github.com/buemura/advaudit/internal/issue"
	"github.com/buemura/advaudit/pkg/types"
)

var errReadOnly = errors.New("read-only transaction")

// Memory keeps everything in process memory. Issue updates are applied to a
// copy and only committed when the transaction function succeeds.
type Memory struct {
	mu       sync.RWMutex
	issues   map[string]types.Issue
	reports  map[string]types.Report
	settings map[string]check.Settings
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		issues:   make(map[string]types.Issue),
		reports:  make(map[string]types.Report),
		settings: make(map[string]check.Settings),
	}
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

type memIssueTx struct {
	issues   map[string]types.Issue
	readOnly bool
}

func (t *memIssueTx) LoadIssue(key string) (types.Issue, error) {
	i, ok := t.issues[key]
	if !ok {
		return types.Issue{}, issue.ErrIssueNotFound
	}
	return cloneIssue(i), nil
}

func (t *memIssueTx) SaveIssue(i types.Issue) error {
	if t.readOnly {
		return errReadOnly
	}
	t.issues[i.Key] = cloneIssue(i)
	return nil
}

func (t *memIssueTx) ListIssues() ([]types.Issue, error) {
	out := make([]types.Issue, 0, len(t.issues))
	for _, i := range t.issues {
		out = append(out, cloneIssue(i))
	}
	return out, nil
}

func cloneIssue(i types.Issue) types.Issue {
	i.Revisions = append([]types.IssueRevision(nil), i.Revisions...)
	return i
}

// cloneReport copies the results, their arguments and the issue details so
// the stored report shares no maps or slices with the caller.
func cloneReport(r types.Report) types.Report {
	if r.Results != nil {
		results := make([]types.CheckResult, len(r.Results))
		for i, res := range r.Results {
			results[i] = cloneResult(res)
		}
		r.Results = results
	}
	r.Overview = maps.Clone(r.Overview)
	return r
}

func cloneResult(res types.CheckResult) types.CheckResult {
	if res.Arguments == nil {
		return res
	}
	args := maps.Clone(res.Arguments)
	if _, ok := args[types.IssuesArgument]; ok {
		if details := res.IssueDetails(); details != nil {
			for name, d := range details {
				details[name] = maps.Clone(d)
			}
			args[types.IssuesArgument] = details
		}
	}
	res.Arguments = args
	return res
}

// UpdateIssues runs fn against a copy of the issues and commits it when fn
// succeeds.
func (m *Memory) UpdateIssues(ctx context.Context, fn func(tx issue.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	staged := make(map[string]types.Issue, len(m.issues))
	for k, v := range m.issues {
		staged[k] = v
	}
	if err := fn(&memIssueTx{issues: staged}); err != nil {
		return err
	}
	m.issues = staged
	return nil
}

// ViewIssues runs fn in a read-only transaction.
func (m *Memory) ViewIssues(ctx context.Context, fn func(tx issue.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(&memIssueTx{issues: m.issues, readOnly: true})
}

// SaveReport stores report under its id.
func (m *Memory) SaveReport(_ context.Context, report types.Report) error {
	if report.ID == "" {
		return errors.New("report id cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[report.ID] = cloneReport(report)
	return nil
}

// LoadReport returns the report stored under id.
func (m *Memory) LoadReport(_ context.Context, id string) (types.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reports[id]
	if !ok {
		return types.Report{}, audit.ErrReportNotFound
	}
	return cloneReport(r), nil
}

// ListReports returns all reports, newest first.
func (m *Memory) ListReports(context.Context) ([]types.Report, error) {
	m.mu.RLock()
	out := make([]types.Report, 0, len(m.reports))
	for _, r := range m.reports {
		out = append(out, cloneReport(r))
	}
	m.mu.RUnlock()
	sortReports(out)
	return out, nil
}

// DeleteReport removes a report.
func (m *Memory) DeleteReport(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reports[id]; !ok {
		return audit.ErrReportNotFound
	}
	delete(m.reports, id)
	return nil
}

// GetSettings returns the overrides stored for a check.
func (m *Memory) GetSettings(_ context.Context, checkID string) (check.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.settings[checkID]
	if !ok {
		return check.Settings{}, check.ErrSettingsNotFound
	}
	return s, nil
}

// SetSettings stores the overrides of a check.
func (m *Memory) SetSettings(_ context.Context, checkID string, s check.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[checkID] = s
	return nil
}

// DeleteSettings drops the overrides of a check.
func (m *Memory) DeleteSettings(_ context.Context, checkID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.settings, checkID)
	return nil
}

var (
	_ issue.Store         = (*Memory)(nil)
	_ audit.ReportStore   = (*Memory)(nil)
	_ check.SettingsStore = (*Memory)(nil)
)
