package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/buemura/advaudit/internal/check"
	"github.com/buemura/advaudit/pkg/types"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options holds batch-wide execution parameters.
type Options struct {
	// Concurrency bounds how many checks run at once. Values below 1 run
	// checks one after another.
	Concurrency int
	// Config maps a check id to its per-check configuration.
	Config map[string]map[string]any
	// Progress, when set, is called after each check finishes.
	Progress func(done, total int, result types.CheckResult)
}

// Selection describes which checks a batch runs. Explicit IDs win over
// categories; without either every enabled check is selected, or every
// registered check when All is set.
type Selection struct {
	IDs        []string
	Categories []string
	All        bool
}

// Runner runs batches of checks and turns them into reports.
type Runner struct {
	executor *check.Executor
	tracker  IssueTracker
	reports  ReportStore
	logger   *zap.Logger
	newID    func() string
	now      func() time.Time
}

// NewRunner creates a runner. tracker and reports may be nil.
func NewRunner(executor *check.Executor, tracker IssueTracker, reports ReportStore, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		executor: executor,
		tracker:  tracker,
		reports:  reports,
		logger:   logger,
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// Executor returns the executor checks run through.
func (r *Runner) Executor() *check.Executor {
	return r.executor
}

// Tracker returns the issue tracker reports are scored against.
func (r *Runner) Tracker() IssueTracker {
	return r.tracker
}

// Select resolves a selection into check ids. Unknown explicit ids are
// kept so they show up as skipped results.
func (r *Runner) Select(ctx context.Context, sel Selection) ([]string, error) {
	if len(sel.IDs) > 0 {
		return append([]string(nil), sel.IDs...), nil
	}

	wanted := make(map[string]bool, len(sel.Categories))
	for _, c := range sel.Categories {
		wanted[c] = true
	}

	var ids []string
	for _, entry := range r.executor.Registry().All() {
		def, err := check.Resolve(ctx, r.executor.Settings(), entry.Definition)
		if err != nil {
			return nil, err
		}
		if len(wanted) > 0 && !wanted[def.Category] {
			continue
		}
		if !sel.All && !def.Enabled {
			continue
		}
		ids = append(ids, def.ID)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no checks selected")
	}
	return ids, nil
}

// Definitions returns the effective definitions of every registered check.
func (r *Runner) Definitions(ctx context.Context) map[string]check.Definition {
	defs := make(map[string]check.Definition)
	for _, entry := range r.executor.Registry().All() {
		def, err := check.Resolve(ctx, r.executor.Settings(), entry.Definition)
		if err != nil {
			r.logger.Warn("using default check settings", zap.String("check", def.ID), zap.Error(err))
		}
		defs[def.ID] = def
	}
	return defs
}

// Run executes ids and returns the resulting report. Checks not started
// before ctx is cancelled are recorded as skipped; the batch itself never
// aborts. Issue and storage failures are returned alongside the report.
func (r *Runner) Run(ctx context.Context, ids []string, opts Options) (types.Report, error) {
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	report := types.Report{ID: r.newID(), CreatedAt: r.now()}
	r.logger.Info("audit started",
		zap.String("report", report.ID),
		zap.Int("checks", len(ids)),
		zap.Int("concurrency", concurrency))

	results := make([]types.CheckResult, len(ids))
	done := make(chan types.CheckResult)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		n := 0
		for res := range done {
			n++
			if opts.Progress != nil {
				opts.Progress(n, len(ids), res)
			}
		}
	}()

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			var res types.CheckResult
			if err := ctx.Err(); err != nil {
				res = types.Skip(id, fmt.Sprintf("not started: %v", err))
			} else {
				res = r.executor.Execute(ctx, id, opts.Config[id])
			}
			results[i] = res
			done <- res
			return nil
		})
	}
	_ = g.Wait()
	close(done)
	<-finished

	// Results are recorded even when the batch was cancelled.
	recordCtx := context.WithoutCancel(ctx)

	var errs *multierror.Error
	agg := NewAggregator(r.tracker)
	for _, res := range results {
		if err := agg.Add(recordCtx, res); err != nil {
			r.logger.Error("recording result", zap.String("check", res.CheckID), zap.Error(err))
			errs = multierror.Append(errs, err)
		}
	}

	report.Results = agg.Results()
	report.Overview = Overview(report.Results, r.Definitions(recordCtx))

	if r.reports != nil {
		if err := r.reports.SaveReport(recordCtx, report); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("saving report: %w", err))
		}
	}

	r.logger.Info("audit finished",
		zap.String("report", report.ID),
		zap.Int("pass", report.CountStatus(types.StatusPass)),
		zap.Int("fail", report.CountStatus(types.StatusFail)),
		zap.Int("skip", report.CountStatus(types.StatusSkip)),
		zap.Int("ignore", report.CountStatus(types.StatusIgnore)))
	return report, errs.ErrorOrNil()
}
