package output

import (
	"context"
	"sort"

	"github.com/buemura/advaudit/internal/audit"
	"github.com/buemura/advaudit/internal/check"
	"github.com/buemura/advaudit/pkg/types"
)

// CheckInfo is the catalog metadata shown next to a result.
type CheckInfo struct {
	ID       string         `json:"id"`
	Label    string         `json:"label"`
	Category string         `json:"category"`
	Severity types.Severity `json:"severity"`
}

// Document is everything a formatter needs to render one report.
type Document struct {
	Report types.Report             `json:"report"`
	Score  int                      `json:"score"`
	Checks map[string]CheckInfo     `json:"checks"`
	Issues map[string][]types.Issue `json:"issues"`
}

// Row is one result with its check metadata and stored issues.
type Row struct {
	Result types.CheckResult
	Check  CheckInfo
	Issues []types.Issue
}

// NewDocument assembles a document from a report and the effective check
// definitions. issues is keyed by check id.
func NewDocument(report types.Report, score int, defs map[string]check.Definition, issues map[string][]types.Issue) Document {
	checks := make(map[string]CheckInfo, len(report.Results))
	for _, r := range report.Results {
		def, ok := defs[r.CheckID]
		if !ok {
			checks[r.CheckID] = CheckInfo{ID: r.CheckID, Label: r.CheckID}
			continue
		}
		checks[r.CheckID] = CheckInfo{ID: def.ID, Label: def.Label, Category: def.Category, Severity: def.Severity}
	}
	if issues == nil {
		issues = map[string][]types.Issue{}
	}
	return Document{Report: report, Score: score, Checks: checks, Issues: issues}
}

// IssueSource is the tracker view a document is built from.
type IssueSource interface {
	audit.IssueCounter
	Issues(ctx context.Context, result types.CheckResult) ([]types.Issue, error)
}

// Build scores a report against the current issue state and collects the
// stored issues of its failing results. A nil source scores every reported
// issue as open.
func Build(ctx context.Context, report types.Report, defs map[string]check.Definition, src IssueSource) (Document, error) {
	if src == nil {
		return NewDocument(report, audit.Score(report.Results, nil), defs, nil), nil
	}
	score, err := audit.ScoreReport(ctx, src, report)
	if err != nil {
		return Document{}, err
	}
	issues := make(map[string][]types.Issue)
	for _, r := range report.Results {
		if r.Status != types.StatusFail {
			continue
		}
		found, err := src.Issues(ctx, r)
		if err != nil {
			return Document{}, err
		}
		issues[r.CheckID] = found
	}
	return NewDocument(report, score, defs, issues), nil
}

// Rows returns the rows with the given status, most severe first.
func (d Document) Rows(status types.Status) []Row {
	var rows []Row
	for _, r := range d.Report.Results {
		if r.Status != status {
			continue
		}
		info, ok := d.Checks[r.CheckID]
		if !ok {
			info = CheckInfo{ID: r.CheckID, Label: r.CheckID}
		}
		rows = append(rows, Row{Result: r, Check: info, Issues: d.Issues[r.CheckID]})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := types.SeverityRank(rows[i].Check.Severity), types.SeverityRank(rows[j].Check.Severity)
		if a != b {
			return a < b
		}
		return rows[i].Check.ID < rows[j].Check.ID
	})
	return rows
}

// Count returns how many results have status.
func (d Document) Count(status types.Status) int {
	return d.Report.CountStatus(status)
}

// OpenIssues returns the open issues of a row. Issue names reported by the
// result but never stored are listed as open with their name as title.
func (r Row) OpenIssues() []types.Issue {
	stored := make(map[string]bool, len(r.Issues))
	var open []types.Issue
	for _, i := range r.Issues {
		stored[i.Name] = true
		if i.IsOpen() {
			open = append(open, i)
		}
	}
	details := r.Result.IssueDetails()
	for _, name := range r.Result.IssueNames() {
		if stored[name] {
			continue
		}
		open = append(open, types.Issue{
			Key:     types.IssueKey(r.Result.CheckID, name),
			CheckID: r.Result.CheckID,
			Name:    name,
			Title:   details[name].Title(name),
			Status:  types.IssueOpen,
		})
	}
	return open
}
