// Package files probes the site for files that should not be publicly
// readable.
package files

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/buemura/advaudit/internal/check"
	"github.com/buemura/advaudit/pkg/types"
	"golang.org/x/sync/errgroup"
)

// ID is the catalog id of the exposed files check.
const ID = "exposed_files"

const defaultConcurrency = 5

// Check requests every probe path and reports the ones answered with 200.
type Check struct {
	client *http.Client
}

// New creates an exposed files check. Redirects are not followed so a
// redirect to a login page does not count as exposure.
func New() (check.Check, error) {
	return &Check{client: &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}}, nil
}

// Perform implements check.Check. Config keys: "paths" (list), "paths_file"
// and "concurrency" (default 5, values below 1 mean 1). Running out of time
// before every path was requested is an error.
func (c *Check) Perform(ctx context.Context, req check.Request) (*types.CheckResult, error) {
	target, err := req.Site.Target()
	if err != nil {
		r := types.Skip(ID, err.Error())
		return &r, nil
	}

	paths := req.ConfigStrings("paths", nil)
	if len(paths) == 0 {
		paths, err = LoadPaths(req.ConfigString("paths_file", ""))
		if err != nil {
			return nil, fmt.Errorf("loading probe paths: %w", err)
		}
	}

	timeout := req.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	base := target.BaseURL()

	found := make([]types.IssueDetails, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	limit := req.ConfigInt("concurrency", defaultConcurrency)
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			d, ok, err := c.probe(gctx, base, strings.TrimPrefix(p, "/"), timeout)
			if err != nil {
				return err
			}
			if ok {
				found[i] = d
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("probing stopped early: %w", err)
	}

	issues := map[string]types.IssueDetails{}
	for i, d := range found {
		if d != nil {
			issues[strings.TrimPrefix(paths[i], "/")] = d
		}
	}
	if len(issues) == 0 {
		r := types.Pass(ID, fmt.Sprintf("none of %d probed files is readable", len(paths)))
		return &r, nil
	}

	names := make([]string, 0, len(issues))
	for n := range issues {
		names = append(names, n)
	}
	sort.Strings(names)
	r := types.Fail(ID, fmt.Sprintf("publicly readable: %s", strings.Join(names, ", ")), issues)
	return &r, nil
}

// probe reports whether path is readable. Transport failures and the
// per-path timeout are not issues; a done parent context is an error.
func (c *Check) probe(ctx context.Context, base, path string, timeout time.Duration) (types.IssueDetails, bool, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := base + "/" + path
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, nil
	}
	resp, err := c.client.Do(req)
	if err != nil {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false, nil
	}
	return types.IssueDetails{
		types.IssueTitleKey: fmt.Sprintf("%s is publicly readable", path),
		"path":              path,
		"url":               url,
		"status_code":       resp.StatusCode,
		"content_type":      resp.Header.Get("Content-Type"),
	}, true, nil
}
