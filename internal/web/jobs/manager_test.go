package jobs

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/buemura/advaudit/internal/audit"
	"github.com/buemura/advaudit/internal/check"
	"github.com/buemura/advaudit/internal/issue"
	"github.com/buemura/advaudit/internal/store"
	"github.com/buemura/advaudit/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func mockCheck(id string, delay time.Duration, result func(req check.Request) types.CheckResult) check.Definition {
	return check.Definition{
		ID:       id,
		Label:    "mock " + id,
		Category: "security",
		Severity: types.SeverityHigh,
		Enabled:  true,
		Factory: func() (check.Check, error) {
			return check.CheckFunc(func(ctx context.Context, req check.Request) (*types.CheckResult, error) {
				if delay > 0 {
					select {
					case <-time.After(delay):
					case <-ctx.Done():
						return nil, ctx.Err()
					}
				}
				r := result(req)
				return &r, nil
			}), nil
		},
	}
}

func passing(id string) check.Definition {
	return mockCheck(id, 0, func(check.Request) types.CheckResult { return types.Pass(id, "ok") })
}

func failing(id string, names ...string) check.Definition {
	return mockCheck(id, 0, func(check.Request) types.CheckResult {
		details := map[string]types.IssueDetails{}
		for _, n := range names {
			details[n] = types.IssueDetails{}
		}
		return types.Fail(id, "bad", details)
	})
}

func newTestManager(t *testing.T, defs ...check.Definition) (*Manager, *store.Memory) {
	t.Helper()
	reg := check.NewRegistry()
	require.NoError(t, reg.RegisterAll(defs))
	mem := store.NewMemory()
	// Jobs may still log after the test returns.
	logger := zap.NewNop()
	exec := check.NewExecutor(reg, nil, check.WithSettings(mem), check.WithLogger(logger))
	runner := audit.NewRunner(exec, issue.NewTracker(mem, logger), mem, logger)
	return NewManager(runner, logger), mem
}

func waitDone(t *testing.T, m *Manager, id string) *Job {
	t.Helper()
	var job *Job
	require.Eventually(t, func() bool {
		j, err := m.Get(id)
		if err != nil {
			return false
		}
		job = j
		return j.Done()
	}, 5*time.Second, 10*time.Millisecond)
	return job
}

func TestCreate_ReturnsPendingJob(t *testing.T) {
	m, _ := newTestManager(t, passing("a"))

	job := m.Create([]string{"a"}, 2)

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, StatusPending, job.Status)
	assert.Equal(t, []string{"a"}, job.Checks)
	assert.Equal(t, 2, job.Concurrency)
	assert.Equal(t, 1, job.Progress.TotalChecks)
	assert.False(t, job.CreatedAt.IsZero())
}

func TestStartAndComplete(t *testing.T) {
	m, mem := newTestManager(t, passing("a"), failing("b", "x"))

	job := m.Create([]string{"a", "b"}, 1)
	require.NoError(t, m.Start(job.ID))

	done := waitDone(t, m, job.ID)
	assert.Equal(t, StatusCompleted, done.Status)
	require.NotNil(t, done.Report)
	assert.Len(t, done.Report.Results, 2)
	assert.Equal(t, 50, done.Score)
	assert.Equal(t, 1, done.FailedCount())
	assert.False(t, done.CompletedAt.IsZero())

	_, err := mem.LoadReport(context.Background(), done.Report.ID)
	assert.NoError(t, err)
}

func TestProgressUpdates(t *testing.T) {
	m, _ := newTestManager(t, passing("a"), passing("b"), passing("c"))

	job := m.Create([]string{"a", "b", "c"}, 1)
	require.NoError(t, m.Start(job.ID))

	done := waitDone(t, m, job.ID)
	assert.Equal(t, 3, done.Progress.TotalChecks)
	assert.Equal(t, 3, done.Progress.CompletedChecks)
	assert.Equal(t, "c", done.Progress.LastCheck)
}

func TestStart_PassesCheckConfig(t *testing.T) {
	m, _ := newTestManager(t, mockCheck("cfg", 0, func(req check.Request) types.CheckResult {
		return types.Pass("cfg", req.ConfigString("greeting", "none"))
	}))
	m.SetConfig(map[string]map[string]any{"cfg": {"greeting": "hello"}})

	job := m.Create([]string{"cfg"}, 1)
	require.NoError(t, m.Start(job.ID))

	done := waitDone(t, m, job.ID)
	assert.Equal(t, "hello", done.Report.Results[0].Reason)
}

func TestStart_Twice(t *testing.T) {
	m, _ := newTestManager(t, passing("a"))
	job := m.Create([]string{"a"}, 1)
	require.NoError(t, m.Start(job.ID))

	err := m.Start(job.ID)
	assert.Error(t, err)
	waitDone(t, m, job.ID)
}

func TestGet_ReturnsSnapshot(t *testing.T) {
	m, _ := newTestManager(t, passing("a"))
	job := m.Create([]string{"a"}, 1)

	got, err := m.Get(job.ID)
	require.NoError(t, err)
	got.Status = StatusFailed

	again, err := m.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, again.Status)
}

func TestGet_NotFound(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.Get("nonexistent")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestList_SortedByCreatedAtDesc(t *testing.T) {
	m, _ := newTestManager(t, passing("a"))

	// Override UUID generator for deterministic IDs.
	counter := 0
	origUUID := newUUID
	newUUID = func() string {
		counter++
		return fmt.Sprintf("job-%d", counter)
	}
	defer func() { newUUID = origUUID }()

	j1 := m.Create([]string{"a"}, 1)
	time.Sleep(time.Millisecond)
	j2 := m.Create([]string{"a"}, 1)

	list := m.List()
	require.Len(t, list, 2)
	assert.Equal(t, j2.ID, list[0].ID) // most recent first
	assert.Equal(t, j1.ID, list[1].ID)
}

func TestDelete_RemovesJob(t *testing.T) {
	m, _ := newTestManager(t, passing("a"))
	job := m.Create([]string{"a"}, 1)

	require.NoError(t, m.Delete(job.ID))

	_, err := m.Get(job.ID)
	assert.Error(t, err)
}

func TestDelete_CancelsRunningJob(t *testing.T) {
	slow := mockCheck("slow", 5*time.Second, func(check.Request) types.CheckResult { return types.Pass("slow", "") })
	m, mem := newTestManager(t, slow, passing("after"))

	job := m.Create([]string{"slow", "after"}, 1)
	require.NoError(t, m.Start(job.ID))
	require.NoError(t, m.Delete(job.ID))

	// The cancelled batch still records a report with skipped checks.
	require.Eventually(t, func() bool {
		reports, err := mem.ListReports(context.Background())
		return err == nil && len(reports) == 1
	}, 5*time.Second, 10*time.Millisecond)
	reports, err := mem.ListReports(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, reports[0].CountStatus(types.StatusPass))
}

func TestDelete_NotFound(t *testing.T) {
	m, _ := newTestManager(t)
	err := m.Delete("nonexistent")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestStart_InvalidJobID(t *testing.T) {
	m, _ := newTestManager(t)
	err := m.Start("nonexistent")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestFailedCount(t *testing.T) {
	job := &Job{}
	assert.Equal(t, 0, job.FailedCount())

	job.Report = &types.Report{Results: []types.CheckResult{
		types.Fail("a", "", nil),
		types.Pass("b", ""),
		types.Fail("c", "", nil),
	}}
	assert.Equal(t, 2, job.FailedCount())
}
