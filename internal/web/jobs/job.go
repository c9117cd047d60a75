package jobs

import (
	"time"

	"github.com/buemura/advaudit/pkg/types"
)

// JobStatus represents the current state of an audit job.
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// JobProgress tracks check-level progress within a job.
type JobProgress struct {
	TotalChecks     int    `json:"total_checks"`
	CompletedChecks int    `json:"completed_checks"`
	LastCheck       string `json:"last_check,omitempty"`
}

// Job represents an async audit run.
type Job struct {
	ID          string        `json:"id"`
	Checks      []string      `json:"checks"`
	Concurrency int           `json:"concurrency"`
	Status      JobStatus     `json:"status"`
	Report      *types.Report `json:"report,omitempty"`
	Score       int           `json:"score"`
	Error       string        `json:"error,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	StartedAt   time.Time     `json:"started_at,omitempty"`
	CompletedAt time.Time     `json:"completed_at,omitempty"`
	Progress    JobProgress   `json:"progress"`
}

// Done reports whether the job reached a terminal status.
func (j *Job) Done() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// FailedCount returns the number of failing checks in the job's report.
func (j *Job) FailedCount() int {
	if j.Report == nil {
		return 0
	}
	return j.Report.CountStatus(types.StatusFail)
}
