// Package check defines audit checks, the catalog that holds them and the
// executor that runs them with fault containment.
package check

import (
	"context"
	"time"

	"github.com/buemura/advaudit/internal/site"
	"github.com/buemura/advaudit/pkg/types"
)

// Check is the interface every audit check implements. Perform must return
// a result with status pass, fail or skip.
type Check interface {
	Perform(ctx context.Context, req Request) (*types.CheckResult, error)
}

// CheckFunc adapts a plain function to the Check interface.
type CheckFunc func(ctx context.Context, req Request) (*types.CheckResult, error)

func (f CheckFunc) Perform(ctx context.Context, req Request) (*types.CheckResult, error) {
	return f(ctx, req)
}

// Request is what a check receives when it runs.
type Request struct {
	Definition Definition
	Site       *site.Facts
	Config     map[string]any
	Timeout    time.Duration
}

// Factory builds a check instance. A failing factory marks the check
// unavailable without removing it from the catalog.
type Factory func() (Check, error)

// Definition is the static metadata of a check.
type Definition struct {
	ID           string              `json:"id"`
	Label        string              `json:"label"`
	Description  string              `json:"description,omitempty"`
	Category     string              `json:"category"`
	Severity     types.Severity      `json:"severity"`
	Enabled      bool                `json:"enabled"`
	Requirements []types.Requirement `json:"requirements,omitempty"`
	Factory      Factory             `json:"-"`
}

// ConfigString reads a string option from a check config map.
func (r Request) ConfigString(key, fallback string) string {
	if v, ok := r.Config[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// ConfigInt reads an integer option from a check config map.
func (r Request) ConfigInt(key string, fallback int) int {
	switch v := r.Config[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return fallback
}

// ConfigStrings reads a list option from a check config map.
func (r Request) ConfigStrings(key string, fallback []string) []string {
	switch v := r.Config[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return fallback
}
