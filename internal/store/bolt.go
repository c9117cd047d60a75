// Package store persists issues, reports and check settings.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/buemura/advaudit/internal/audit"
	"github.com/buemura/advaudit/internal/check"
	"github.com/buemura/advaudit/internal/issue"
	"github.com/buemura/advaudit/pkg/types"
	bolt "go.etcd.io/bbolt"
)

const (
	issuesBucket   = "issues"
	reportsBucket  = "reports"
	settingsBucket = "settings"

	openTimeout = 2 * time.Second
)

var buckets = []string{issuesBucket, reportsBucket, settingsBucket}

// Bolt is a single-file store backed by bbolt. Values are JSON encoded.
type Bolt struct {
	db   *bolt.DB
	path string
}

// OpenBolt opens or creates the database at path. Opening fails after a
// short timeout when another process holds the file.
func OpenBolt(path string) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating database dir: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("creating %s bucket: %w", name, err)
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Bolt{db: db, path: path}, nil
}

// Path returns the database file location.
func (b *Bolt) Path() string {
	return b.path
}

// Close releases the database file.
func (b *Bolt) Close() error {
	return b.db.Close()
}

func (b *Bolt) update(ctx context.Context, fn func(tx *bolt.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(fn)
}

func (b *Bolt) view(ctx context.Context, fn func(tx *bolt.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.View(fn)
}

func get(bucket *bolt.Bucket, key string, v any, notFound error) error {
	raw := bucket.Get([]byte(key))
	if raw == nil {
		return notFound
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding %q: %w", key, err)
	}
	return nil
}

func put(bucket *bolt.Bucket, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %q: %w", key, err)
	}
	return bucket.Put([]byte(key), raw)
}

// issues

type boltIssueTx struct {
	bucket *bolt.Bucket
}

func (t boltIssueTx) LoadIssue(key string) (types.Issue, error) {
	var i types.Issue
	err := get(t.bucket, key, &i, issue.ErrIssueNotFound)
	return i, err
}

func (t boltIssueTx) SaveIssue(i types.Issue) error {
	return put(t.bucket, i.Key, i)
}

func (t boltIssueTx) ListIssues() ([]types.Issue, error) {
	var out []types.Issue
	err := t.bucket.ForEach(func(k, v []byte) error {
		var i types.Issue
		if err := json.Unmarshal(v, &i); err != nil {
			return fmt.Errorf("decoding %q: %w", k, err)
		}
		out = append(out, i)
		return nil
	})
	return out, err
}

// UpdateIssues runs fn in one write transaction. Returning an error from
// fn rolls back every change it made.
func (b *Bolt) UpdateIssues(ctx context.Context, fn func(tx issue.Tx) error) error {
	return b.update(ctx, func(tx *bolt.Tx) error {
		return fn(boltIssueTx{bucket: tx.Bucket([]byte(issuesBucket))})
	})
}

// ViewIssues runs fn in a read-only transaction.
func (b *Bolt) ViewIssues(ctx context.Context, fn func(tx issue.Tx) error) error {
	return b.view(ctx, func(tx *bolt.Tx) error {
		return fn(boltIssueTx{bucket: tx.Bucket([]byte(issuesBucket))})
	})
}

// reports

// SaveReport stores report under its id, replacing any earlier version.
func (b *Bolt) SaveReport(ctx context.Context, report types.Report) error {
	if report.ID == "" {
		return errors.New("report id cannot be empty")
	}
	return b.update(ctx, func(tx *bolt.Tx) error {
		return put(tx.Bucket([]byte(reportsBucket)), report.ID, report)
	})
}

// LoadReport returns the report stored under id.
func (b *Bolt) LoadReport(ctx context.Context, id string) (types.Report, error) {
	var r types.Report
	err := b.view(ctx, func(tx *bolt.Tx) error {
		return get(tx.Bucket([]byte(reportsBucket)), id, &r, audit.ErrReportNotFound)
	})
	return r, err
}

// ListReports returns all reports, newest first.
func (b *Bolt) ListReports(ctx context.Context) ([]types.Report, error) {
	var out []types.Report
	err := b.view(ctx, func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(reportsBucket)).ForEach(func(k, v []byte) error {
			var r types.Report
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("decoding report %q: %w", k, err)
			}
			out = append(out, r)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortReports(out)
	return out, nil
}

// DeleteReport removes a report. Deleting a missing report is an error.
func (b *Bolt) DeleteReport(ctx context.Context, id string) error {
	return b.update(ctx, func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(reportsBucket))
		if bucket.Get([]byte(id)) == nil {
			return audit.ErrReportNotFound
		}
		return bucket.Delete([]byte(id))
	})
}

// settings

// GetSettings returns the overrides stored for a check.
func (b *Bolt) GetSettings(ctx context.Context, checkID string) (check.Settings, error) {
	var s check.Settings
	err := b.view(ctx, func(tx *bolt.Tx) error {
		return get(tx.Bucket([]byte(settingsBucket)), checkID, &s, check.ErrSettingsNotFound)
	})
	return s, err
}

// SetSettings stores the overrides of a check.
func (b *Bolt) SetSettings(ctx context.Context, checkID string, s check.Settings) error {
	return b.update(ctx, func(tx *bolt.Tx) error {
		return put(tx.Bucket([]byte(settingsBucket)), checkID, s)
	})
}

// DeleteSettings drops the overrides of a check.
func (b *Bolt) DeleteSettings(ctx context.Context, checkID string) error {
	return b.update(ctx, func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(settingsBucket)).Delete([]byte(checkID))
	})
}

func sortReports(reports []types.Report) {
	sort.SliceStable(reports, func(i, j int) bool {
		if !reports[i].CreatedAt.Equal(reports[j].CreatedAt) {
			return reports[i].CreatedAt.After(reports[j].CreatedAt)
		}
		return reports[i].ID < reports[j].ID
	})
}

var (
	_ issue.Store         = (*Bolt)(nil)
	_ audit.ReportStore   = (*Bolt)(nil)
	_ check.SettingsStore = (*Bolt)(nil)
)
