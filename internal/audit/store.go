package audit

import (
	"context"
	"errors"

	"github.com/buemura/advaudit/pkg/types"
)

// ErrReportNotFound is returned when no report exists for an id.
var ErrReportNotFound = errors.New("report not found")

// ReportStore persists finished reports.
type ReportStore interface {
	SaveReport(ctx context.Context, report types.Report) error
	LoadReport(ctx context.Context, id string) (types.Report, error)
	// ListReports returns reports newest first.
	ListReports(ctx context.Context) ([]types.Report, error)
	DeleteReport(ctx context.Context, id string) error
}
