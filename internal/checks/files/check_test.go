package files

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/buemura/advaudit/internal/check"
	"github.com/buemura/advaudit/internal/site"
	"github.com/buemura/advaudit/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSite(t *testing.T, exposed ...string) *httptest.Server {
	t.Helper()
	open := map[string]bool{}
	for _, p := range exposed {
		open["/"+p] = true
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case open[r.URL.Path]:
			w.WriteHeader(http.StatusOK)
		case r.URL.Path == "/update.php":
			http.Redirect(w, r, "/user/login", http.StatusFound)
		case r.URL.Path == "/install.php":
			w.WriteHeader(http.StatusForbidden)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func perform(t *testing.T, srv *httptest.Server, cfg map[string]any) types.CheckResult {
	t.Helper()
	c, err := New()
	require.NoError(t, err)
	res, err := c.Perform(context.Background(), check.Request{
		Definition: check.Definition{ID: ID},
		Site:       &site.Facts{BaseURL: srv.URL},
		Config:     cfg,
	})
	require.NoError(t, err)
	return *res
}

func TestCheck_ExposedFiles(t *testing.T) {
	srv := newSite(t, "CHANGELOG.txt", "composer.lock")

	res := perform(t, srv, nil)
	require.Equal(t, types.StatusFail, res.Status)
	assert.Equal(t, []string{"CHANGELOG.txt", "composer.lock"}, res.IssueNames())
	assert.Contains(t, res.Reason, "CHANGELOG.txt")

	d := res.IssueDetails()["CHANGELOG.txt"]
	assert.Equal(t, srv.URL+"/CHANGELOG.txt", d["url"])
	assert.Equal(t, "CHANGELOG.txt is publicly readable", d.Title(""))
}

func TestCheck_RedirectsAndForbiddenAreFine(t *testing.T) {
	srv := newSite(t)

	res := perform(t, srv, map[string]any{"paths": []any{"update.php", "/install.php", "README.txt"}})
	assert.Equal(t, types.StatusPass, res.Status)
	assert.Contains(t, res.Reason, "3")
}

func TestCheck_PathsFile(t *testing.T) {
	srv := newSite(t, "secret.txt")
	file := filepath.Join(t.TempDir(), "paths.txt")
	require.NoError(t, os.WriteFile(file, []byte("# custom\nsecret.txt\n\nother.txt\n"), 0o600))

	res := perform(t, srv, map[string]any{"paths_file": file})
	require.Equal(t, types.StatusFail, res.Status)
	assert.Equal(t, []string{"secret.txt"}, res.IssueNames())
}

func TestCheck_MissingPathsFileIsError(t *testing.T) {
	srv := newSite(t)
	c, err := New()
	require.NoError(t, err)
	_, err = c.Perform(context.Background(), check.Request{
		Site:   &site.Facts{BaseURL: srv.URL},
		Config: map[string]any{"paths_file": "/does/not/exist"},
	})
	assert.Error(t, err)
}

func TestLoadPaths_Default(t *testing.T) {
	paths, err := LoadPaths("")
	require.NoError(t, err)
	assert.Contains(t, paths, "CHANGELOG.txt")
	assert.Contains(t, paths, "install.php")
	assert.Contains(t, paths, "update.php")
	for _, p := range paths {
		assert.NotContains(t, p, "#")
	}
}

func slowSite(t *testing.T, delay time.Duration, exposed string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
		if r.URL.Path == "/"+exposed {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheck_CheckTimeoutIsNotAPass(t *testing.T) {
	srv := slowSite(t, 100*time.Millisecond, "secret.txt")

	reg := check.NewRegistry()
	require.NoError(t, reg.Register(check.Definition{
		ID: ID, Label: "Exposed files", Category: "security",
		Severity: types.SeverityHigh, Enabled: true, Factory: New,
	}))
	exec := check.NewExecutor(reg, &site.Facts{BaseURL: srv.URL}, check.WithTimeout(250*time.Millisecond))

	res := exec.Execute(context.Background(), ID, map[string]any{
		"paths":       []string{"a.txt", "b.txt", "c.txt", "d.txt", "secret.txt"},
		"concurrency": 1,
	})
	assert.Equal(t, types.StatusSkip, res.Status)
	assert.Contains(t, res.Reason, "deadline exceeded")
}

func TestCheck_SlowPathIsNotReadable(t *testing.T) {
	srv := slowSite(t, 200*time.Millisecond, "CHANGELOG.txt")
	c, err := New()
	require.NoError(t, err)

	res, err := c.Perform(context.Background(), check.Request{
		Definition: check.Definition{ID: ID},
		Site:       &site.Facts{BaseURL: srv.URL},
		Config:     map[string]any{"paths": []string{"CHANGELOG.txt"}},
		Timeout:    20 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.Equal(t, types.StatusPass, res.Status)
}

func TestCheck_CancelledContextIsError(t *testing.T) {
	srv := newSite(t, "CHANGELOG.txt")
	c, err := New()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Perform(ctx, check.Request{
		Definition: check.Definition{ID: ID},
		Site:       &site.Facts{BaseURL: srv.URL},
		Config:     map[string]any{"paths": []string{"CHANGELOG.txt"}},
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCheck_ConcurrencyBelowOneRunsSequentially(t *testing.T) {
	var inFlight, maxInFlight atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	res := perform(t, srv, map[string]any{
		"paths":       []string{"a.txt", "b.txt", "c.txt", "d.txt"},
		"concurrency": 0,
	})
	assert.Equal(t, types.StatusPass, res.Status)
	assert.Equal(t, int32(1), maxInFlight.Load())
}
