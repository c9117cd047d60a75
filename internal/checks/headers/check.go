// Package headers checks the HTTP security headers the site sends.
package headers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/buemura/advaudit/internal/check"
	"github.com/buemura/advaudit/pkg/types"
)

// ID is the catalog id of the headers check.
const ID = "http_headers"

// Check requests the site front page and applies every Rule to the
// response headers.
type Check struct {
	client *http.Client
}

// New creates a headers check.
func New() (check.Check, error) {
	return &Check{client: &http.Client{}}, nil
}

// Perform implements check.Check.
func (c *Check) Perform(ctx context.Context, req check.Request) (*types.CheckResult, error) {
	target, err := req.Site.Target()
	if err != nil {
		r := types.Skip(ID, err.Error())
		return &r, nil
	}
	url := req.ConfigString("url", target.BaseURL())

	timeout := req.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	isHTTPS := strings.HasPrefix(url, "https://")
	ignored := map[string]bool{}
	for _, name := range req.ConfigStrings("ignore", nil) {
		ignored[strings.ToLower(name)] = true
	}

	issues := map[string]types.IssueDetails{}
	for _, rule := range Rules() {
		name := strings.ToLower(rule.Name)
		if ignored[name] {
			continue
		}
		f := rule.Check(resp.Header, isHTTPS)
		if f == nil {
			continue
		}
		d := types.IssueDetails{
			types.IssueTitleKey: f.Title,
			"header":            rule.Name,
			"description":       f.Description,
			"remediation":       f.Remediation,
			"severity":          string(f.Severity),
			"url":               url,
		}
		if f.Value != "" {
			d["value"] = f.Value
		}
		issues[name] = d
	}

	if len(issues) == 0 {
		r := types.Pass(ID, fmt.Sprintf("%s sends every expected security header", url))
		return &r, nil
	}
	r := types.Fail(ID, fmt.Sprintf("%d security header problem(s) on %s", len(issues), url), issues)
	return &r, nil
}
