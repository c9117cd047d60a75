package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/buemura/advaudit/internal/audit"
	"github.com/buemura/advaudit/internal/check"
	"github.com/buemura/advaudit/internal/checks"
	"github.com/buemura/advaudit/internal/issue"
	"github.com/buemura/advaudit/internal/output"
	"github.com/buemura/advaudit/internal/site"
	"github.com/buemura/advaudit/internal/store"
	"github.com/buemura/advaudit/pkg/types"
)

// env wires the engine for one command invocation.
type env struct {
	store   store.Store
	tracker *issue.Tracker
	runner  *audit.Runner
}

// openEnv opens the database and builds the check catalog. A database path
// of ":memory:" keeps everything in memory for the current command. The
// site facts snapshot is only loaded when withSite is set; commands that
// never run checks work without one.
func openEnv(withSite bool) (*env, error) {
	var facts *site.Facts
	if withSite {
		f, err := site.Load(appConfig.SiteFile)
		if err != nil {
			return nil, err
		}
		facts = f
	}

	reg, err := checks.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("building check catalog: %w", err)
	}

	db, err := store.Open(appConfig.Database)
	if err != nil {
		return nil, err
	}

	tracker := issue.NewTracker(db, appLogger)
	exec := check.NewExecutor(reg, facts,
		check.WithSettings(db),
		check.WithLogger(appLogger),
		check.WithTimeout(appConfig.Timeout),
	)
	return &env{
		store:   db,
		tracker: tracker,
		runner:  audit.NewRunner(exec, tracker, db, appLogger),
	}, nil
}

func (e *env) Close() error {
	return e.store.Close()
}

func (e *env) registry() *check.Registry {
	return e.runner.Executor().Registry()
}

// lookup returns the entry of a registered check.
func (e *env) lookup(id string) (check.Entry, error) {
	return e.registry().Get(id)
}

// render scores report against the current issue state and writes it in
// the configured output format.
func (e *env) render(ctx context.Context, w io.Writer, report types.Report) error {
	formatter, err := output.GetFormatter(appConfig.OutputFormat)
	if err != nil {
		return err
	}
	doc, err := output.Build(ctx, report, e.runner.Definitions(ctx), e.tracker)
	if err != nil {
		return err
	}
	return formatter.Format(w, doc)
}
