// Package audit collects check results into reports, scores them and runs
// batches of checks.
package audit

import (
	"context"
	"fmt"
	"sync"

	"github.com/buemura/advaudit/pkg/types"
)

// IssueTracker is the part of the issue tracker the aggregator drives.
type IssueTracker interface {
	IssueCounter
	Materialize(ctx context.Context, checkID string, details map[string]types.IssueDetails) ([]types.Issue, error)
}

// Aggregator accumulates the results of one batch. It is safe for
// concurrent use.
type Aggregator struct {
	mu      sync.Mutex
	tracker IssueTracker
	results []types.CheckResult
	index   map[string]int
}

// NewAggregator creates an empty aggregator. A nil tracker disables issue
// materialization and scores every issue as open.
func NewAggregator(tracker IssueTracker) *Aggregator {
	return &Aggregator{tracker: tracker, index: make(map[string]int)}
}

// Add records a result. A later result for the same check replaces the
// earlier one in place. Failing results have their issues materialized;
// the result is recorded even when that fails.
func (a *Aggregator) Add(ctx context.Context, result types.CheckResult) error {
	if result.CheckID == "" {
		return fmt.Errorf("result without check id")
	}
	if !result.Status.Valid() {
		return fmt.Errorf("result for %q has invalid status %q", result.CheckID, result.Status)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if i, ok := a.index[result.CheckID]; ok {
		a.results[i] = result
	} else {
		a.index[result.CheckID] = len(a.results)
		a.results = append(a.results, result)
	}

	if result.Status != types.StatusFail || a.tracker == nil {
		return nil
	}
	details := result.IssueDetails()
	if len(details) == 0 {
		return nil
	}
	_, err := a.tracker.Materialize(ctx, result.CheckID, details)
	return err
}

// Results returns a copy of the recorded results in insertion order.
func (a *Aggregator) Results() []types.CheckResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]types.CheckResult, len(a.results))
	copy(out, a.results)
	return out
}

// Len returns the number of distinct checks recorded.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.results)
}

// Report returns the recorded results as an unsaved report.
func (a *Aggregator) Report() types.Report {
	return types.Report{Results: a.Results()}
}

// Score rates the recorded results against the current issue states.
func (a *Aggregator) Score(ctx context.Context) (int, error) {
	report := a.Report()
	if a.tracker == nil {
		return Score(report.Results, nil), nil
	}
	return ScoreReport(ctx, a.tracker, report)
}
