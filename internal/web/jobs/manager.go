package jobs

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/buemura/advaudit/internal/audit"
	"github.com/buemura/advaudit/pkg/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// newUUID generates job ids. Extracted as a variable for testing.
var newUUID = uuid.NewString

// Manager manages audit job lifecycle: create, execute, track, store results.
type Manager struct {
	mu      sync.RWMutex
	jobs    map[string]*Job
	cancels map[string]context.CancelFunc
	config  map[string]map[string]any
	runner  *audit.Runner
	logger  *zap.Logger
}

// NewManager creates a new job manager backed by the given audit runner.
func NewManager(runner *audit.Runner, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		jobs:    make(map[string]*Job),
		cancels: make(map[string]context.CancelFunc),
		runner:  runner,
		logger:  logger,
	}
}

// SetConfig replaces the per-check configuration used by jobs started
// afterwards.
func (m *Manager) SetConfig(cfg map[string]map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config = cfg
}

// Create creates a new pending audit job.
func (m *Manager) Create(checks []string, concurrency int) *Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	job := &Job{
		ID:          newUUID(),
		Checks:      checks,
		Concurrency: concurrency,
		Status:      StatusPending,
		CreatedAt:   time.Now(),
		Progress: JobProgress{
			TotalChecks: len(checks),
		},
	}
	m.jobs[job.ID] = job
	cp := *job
	return &cp
}

// Start launches the audit job in a background goroutine.
func (m *Manager) Start(jobID string) error {
	m.mu.Lock()
	job, ok := m.jobs[jobID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("job %q not found", jobID)
	}
	if job.Status != StatusPending {
		m.mu.Unlock()
		return fmt.Errorf("job %q is already %s", jobID, job.Status)
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancels[jobID] = cancel
	job.Status = StatusRunning
	job.StartedAt = time.Now()
	opts := audit.Options{Concurrency: job.Concurrency, Config: m.config}
	m.mu.Unlock()

	go m.execute(ctx, job, opts)
	return nil
}

func (m *Manager) execute(ctx context.Context, job *Job, opts audit.Options) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("audit job panicked", zap.String("job", job.ID), zap.Any("panic", r))
			m.finish(job, nil, 0, fmt.Errorf("panic: %v", r))
		}
	}()

	opts.Progress = func(done, _ int, res types.CheckResult) {
		m.mu.Lock()
		job.Progress.CompletedChecks = done
		job.Progress.LastCheck = res.CheckID
		m.mu.Unlock()
	}

	report, err := m.runner.Run(ctx, job.Checks, opts)

	score := audit.Score(report.Results, nil)
	if tracker := m.runner.Tracker(); tracker != nil {
		s, scoreErr := audit.ScoreReport(context.WithoutCancel(ctx), tracker, report)
		if scoreErr != nil {
			m.logger.Warn("scoring audit", zap.String("job", job.ID), zap.Error(scoreErr))
		} else {
			score = s
		}
	}
	m.finish(job, &report, score, err)
}

func (m *Manager) finish(job *Job, report *types.Report, score int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job.Report = report
	job.Score = score
	job.Status = StatusCompleted
	if err != nil {
		job.Status = StatusFailed
		job.Error = err.Error()
	}
	job.CompletedAt = time.Now()
	if cancel, ok := m.cancels[job.ID]; ok {
		cancel()
		delete(m.cancels, job.ID)
	}
}

// Get returns a snapshot of a job by ID.
func (m *Manager) Get(jobID string) (*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("job %q not found", jobID)
	}
	cp := *job
	return &cp, nil
}

// List returns snapshots of all jobs sorted by CreatedAt descending.
func (m *Manager) List() []*Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		cp := *j
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, k int) bool {
		return result[i].CreatedAt.After(result[k].CreatedAt)
	})
	return result
}

// Delete removes a job from the manager, cancelling it when still running.
// Checks that have not started yet are then recorded as skipped.
func (m *Manager) Delete(jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[jobID]; !ok {
		return fmt.Errorf("job %q not found", jobID)
	}
	if cancel, ok := m.cancels[jobID]; ok {
		cancel()
		delete(m.cancels, jobID)
	}
	delete(m.jobs, jobID)
	return nil
}
