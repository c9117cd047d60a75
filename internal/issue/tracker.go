// Package issue turns failing check details into durable issues and owns
// their lifecycle: open, fixed, ignored and reopened.
package issue

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/buemura/advaudit/pkg/types"
	"go.uber.org/zap"
)

// ErrIssueNotFound is returned when no issue exists for a key.
var ErrIssueNotFound = errors.New("issue not found")

// Tx is a read-modify-write view of the issue store.
type Tx interface {
	LoadIssue(key string) (types.Issue, error)
	SaveIssue(issue types.Issue) error
	ListIssues() ([]types.Issue, error)
}

// Store is the durable storage behind the tracker. UpdateIssues runs fn in
// one write transaction; ViewIssues in a read-only one.
type Store interface {
	UpdateIssues(ctx context.Context, fn func(tx Tx) error) error
	ViewIssues(ctx context.Context, fn func(tx Tx) error) error
}

// Filter narrows List results. Empty fields match everything.
type Filter struct {
	CheckID string
	Status  types.IssueStatus
}

// Tracker owns the issue lifecycle.
type Tracker struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewTracker creates a tracker persisting to store.
func NewTracker(store Store, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{store: store, logger: logger, now: time.Now}
}

// Materialize creates or refreshes one issue per entry of details. Fixed
// issues that show up again are reopened; ignored issues stay ignored.
// The returned issues are sorted by key.
func (t *Tracker) Materialize(ctx context.Context, checkID string, details map[string]types.IssueDetails) ([]types.Issue, error) {
	if len(details) == 0 {
		return []types.Issue{}, nil
	}

	names := make([]string, 0, len(details))
	for name := range details {
		names = append(names, name)
	}
	sort.Strings(names)

	issues := make([]types.Issue, 0, len(names))
	err := t.store.UpdateIssues(ctx, func(tx Tx) error {
		for _, name := range names {
			issue, err := t.upsert(tx, checkID, name, details[name])
			if err != nil {
				return err
			}
			issues = append(issues, issue)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("materializing issues for %q: %w", checkID, err)
	}
	return issues, nil
}

func (t *Tracker) upsert(tx Tx, checkID, name string, d types.IssueDetails) (types.Issue, error) {
	key := types.IssueKey(checkID, name)
	title := d.Title(name)
	payload, err := types.MarshalDetails(d)
	if err != nil {
		return types.Issue{}, fmt.Errorf("serializing details of %q: %w", key, err)
	}

	issue, err := tx.LoadIssue(key)
	switch {
	case errors.Is(err, ErrIssueNotFound):
		now := t.now()
		issue = types.Issue{
			Key:       key,
			CheckID:   checkID,
			Name:      name,
			Title:     title,
			Details:   payload,
			Status:    types.IssueOpen,
			CreatedAt: now,
			UpdatedAt: now,
			Revisions: []types.IssueRevision{{Status: types.IssueOpen, Title: title, Details: payload, Message: "created", At: now}},
		}
		t.logger.Info("issue opened", zap.String("issue", key))

	case err != nil:
		return types.Issue{}, fmt.Errorf("loading issue %q: %w", key, err)

	default:
		changed := issue.Title != title || issue.Details != payload
		reopen := issue.Status == types.IssueFixed
		if changed || reopen {
			now := t.now()
			issue.Title = title
			issue.Details = payload
			message := "updated"
			if reopen {
				issue.Status = types.IssueOpen
				message = "reopened"
				t.logger.Info("issue reopened", zap.String("issue", key))
			}
			issue.UpdatedAt = now
			issue.Revisions = append(issue.Revisions, types.IssueRevision{
				Status: issue.Status, Title: title, Details: payload, Message: message, At: now,
			})
		}
	}

	if err := tx.SaveIssue(issue); err != nil {
		return types.Issue{}, fmt.Errorf("saving issue %q: %w", key, err)
	}
	return issue, nil
}

// OpenIssues filters issues down to the ones with status open.
func OpenIssues(issues []types.Issue) []types.Issue {
	open := make([]types.Issue, 0, len(issues))
	for _, i := range issues {
		if i.IsOpen() {
			open = append(open, i)
		}
	}
	return open
}

// OpenCount returns how many of a failing result's issues are currently
// open. Issues that were never stored count as open; non-failing results
// have none.
func (t *Tracker) OpenCount(ctx context.Context, result types.CheckResult) (int, error) {
	if result.Status != types.StatusFail {
		return 0, nil
	}
	names := result.IssueNames()
	if len(names) == 0 {
		return 0, nil
	}

	open := 0
	err := t.store.ViewIssues(ctx, func(tx Tx) error {
		for _, name := range names {
			issue, err := tx.LoadIssue(types.IssueKey(result.CheckID, name))
			if errors.Is(err, ErrIssueNotFound) {
				open++
				continue
			}
			if err != nil {
				return err
			}
			if issue.IsOpen() {
				open++
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("counting open issues for %q: %w", result.CheckID, err)
	}
	return open, nil
}

// Issues returns the stored issues referenced by a result, sorted by key.
// Missing issues are left out.
func (t *Tracker) Issues(ctx context.Context, result types.CheckResult) ([]types.Issue, error) {
	names := result.IssueNames()
	issues := make([]types.Issue, 0, len(names))
	if len(names) == 0 {
		return issues, nil
	}
	err := t.store.ViewIssues(ctx, func(tx Tx) error {
		for _, name := range names {
			issue, err := tx.LoadIssue(types.IssueKey(result.CheckID, name))
			if errors.Is(err, ErrIssueNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			issues = append(issues, issue)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading issues for %q: %w", result.CheckID, err)
	}
	return issues, nil
}

// SetStatus moves an issue to a new status by hand, e.g. marking it fixed
// or ignored, or reopening an ignored issue.
func (t *Tracker) SetStatus(ctx context.Context, key string, status types.IssueStatus, message string) (types.Issue, error) {
	if _, err := types.ParseIssueStatus(string(status)); err != nil {
		return types.Issue{}, err
	}

	var issue types.Issue
	err := t.store.UpdateIssues(ctx, func(tx Tx) error {
		var err error
		issue, err = tx.LoadIssue(key)
		if err != nil {
			return err
		}
		if issue.Status == status {
			return nil
		}
		if message == "" {
			message = fmt.Sprintf("marked %s", status)
		}
		now := t.now()
		issue.Status = status
		issue.UpdatedAt = now
		issue.Revisions = append(issue.Revisions, types.IssueRevision{
			Status: status, Title: issue.Title, Details: issue.Details, Message: message, At: now,
		})
		return tx.SaveIssue(issue)
	})
	if err != nil {
		return types.Issue{}, fmt.Errorf("setting status of issue %q: %w", key, err)
	}
	t.logger.Info("issue status changed", zap.String("issue", key), zap.String("status", string(status)))
	return issue, nil
}

// Get returns one issue by key.
func (t *Tracker) Get(ctx context.Context, key string) (types.Issue, error) {
	var issue types.Issue
	err := t.store.ViewIssues(ctx, func(tx Tx) error {
		var err error
		issue, err = tx.LoadIssue(key)
		return err
	})
	return issue, err
}

// List returns the stored issues matching f, sorted by key.
func (t *Tracker) List(ctx context.Context, f Filter) ([]types.Issue, error) {
	var issues []types.Issue
	err := t.store.ViewIssues(ctx, func(tx Tx) error {
		all, err := tx.ListIssues()
		if err != nil {
			return err
		}
		for _, i := range all {
			if f.CheckID != "" && i.CheckID != f.CheckID {
				continue
			}
			if f.Status != "" && i.Status != f.Status {
				continue
			}
			issues = append(issues, i)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing issues: %w", err)
	}
	sort.Slice(issues, func(i, j int) bool { return issues[i].Key < issues[j].Key })
	return issues, nil
}
