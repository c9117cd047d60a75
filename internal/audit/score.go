package audit

import (
	"context"

	"github.com/buemura/advaudit/pkg/types"
)

// OpenIssueCounter reports how many issues of a failing result are
// currently open.
type OpenIssueCounter func(result types.CheckResult) int

// Score rates a set of results from 0 to 100. Skipped checks are left out
// of the denominator. A failing check whose issues have all been fixed or
// ignored counts as passed. Ignored checks count against the score.
// A nil counter treats every issue of a result as open.
func Score(results []types.CheckResult, openIssues OpenIssueCounter) int {
	if len(results) == 0 {
		return 0
	}
	total := len(results)
	passed := 0
	for _, r := range results {
		switch r.Status {
		case types.StatusSkip:
			total--
		case types.StatusPass:
			passed++
		case types.StatusFail:
			open := len(r.IssueNames())
			if openIssues != nil {
				open = openIssues(r)
			}
			if open == 0 {
				passed++
			}
		}
	}
	if total < 1 {
		total = 1
	}
	return passed * 100 / total
}

// IssueCounter is the part of the issue tracker scoring depends on.
type IssueCounter interface {
	OpenCount(ctx context.Context, result types.CheckResult) (int, error)
}

// ScoreReport scores a report against the current state of the issue
// store. The first lookup error aborts scoring.
func ScoreReport(ctx context.Context, issues IssueCounter, report types.Report) (int, error) {
	counts := make(map[string]int, len(report.Results))
	for _, r := range report.Results {
		if r.Status != types.StatusFail {
			continue
		}
		n, err := issues.OpenCount(ctx, r)
		if err != nil {
			return 0, err
		}
		counts[r.CheckID] = n
	}
	return Score(report.Results, func(r types.CheckResult) int { return counts[r.CheckID] }), nil
}
