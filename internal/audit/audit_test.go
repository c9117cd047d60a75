package audit

import (
	"context"
	"errors"
	"sync"

	"github.com/buemura/advaudit/pkg/types"
)

// fakeTracker keeps issue statuses in memory keyed by issue key.
type fakeTracker struct {
	mu       sync.Mutex
	statuses map[string]types.IssueStatus
	calls    int
	err      error
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{statuses: map[string]types.IssueStatus{}}
}

func (f *fakeTracker) Materialize(_ context.Context, checkID string, details map[string]types.IssueDetails) ([]types.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []types.Issue
	for name := range details {
		key := types.IssueKey(checkID, name)
		switch f.statuses[key] {
		case "", types.IssueFixed:
			f.statuses[key] = types.IssueOpen
		}
		out = append(out, types.Issue{Key: key, CheckID: checkID, Name: name, Status: f.statuses[key]})
	}
	return out, nil
}

func (f *fakeTracker) OpenCount(_ context.Context, result types.CheckResult) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	n := 0
	for _, name := range result.IssueNames() {
		s, ok := f.statuses[types.IssueKey(result.CheckID, name)]
		if !ok || s == types.IssueOpen {
			n++
		}
	}
	return n, nil
}

func (f *fakeTracker) set(key string, s types.IssueStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[key] = s
}

var errBoom = errors.New("boom")

type fakeReports struct {
	mu      sync.Mutex
	reports map[string]types.Report
	err     error
}

func (f *fakeReports) SaveReport(_ context.Context, r types.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.reports == nil {
		f.reports = map[string]types.Report{}
	}
	f.reports[r.ID] = r
	return nil
}

func (f *fakeReports) LoadReport(_ context.Context, id string) (types.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[id]
	if !ok {
		return types.Report{}, ErrReportNotFound
	}
	return r, nil
}

func (f *fakeReports) ListReports(context.Context) ([]types.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []types.Report
	for _, r := range f.reports {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeReports) DeleteReport(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.reports, id)
	return nil
}

func issues(names ...string) map[string]types.IssueDetails {
	out := make(map[string]types.IssueDetails, len(names))
	for _, n := range names {
		out[n] = types.IssueDetails{types.IssueTitleKey: n}
	}
	return out
}
