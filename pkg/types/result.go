package types

import (
	"encoding/json"
	"sort"
	"time"
)

// IssuesArgument is the arguments key holding a failing check's issues.
const IssuesArgument = "issues"

// IssueTitleKey is the issue details key holding the human readable title.
const IssueTitleKey = "@issue_title"

// IssueDetails carries the structured detail of one named issue.
type IssueDetails map[string]any

// Title returns the @issue_title entry or fallback when it is missing.
func (d IssueDetails) Title(fallback string) string {
	if t, ok := d[IssueTitleKey].(string); ok && t != "" {
		return t
	}
	return fallback
}

// CheckResult is the outcome of running one check.
type CheckResult struct {
	CheckID     string         `json:"check_id"`
	Status      Status         `json:"status"`
	Reason      string         `json:"reason"`
	Arguments   map[string]any `json:"arguments,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt time.Time      `json:"completed_at"`
}

// Pass builds a passing result.
func Pass(checkID, reason string) CheckResult {
	return CheckResult{CheckID: checkID, Status: StatusPass, Reason: reason}
}

// Fail builds a failing result carrying the given issues.
func Fail(checkID, reason string, issues map[string]IssueDetails) CheckResult {
	if issues == nil {
		issues = map[string]IssueDetails{}
	}
	return CheckResult{
		CheckID:   checkID,
		Status:    StatusFail,
		Reason:    reason,
		Arguments: map[string]any{IssuesArgument: issues},
	}
}

// Skip builds a skipped result.
func Skip(checkID, reason string) CheckResult {
	return CheckResult{CheckID: checkID, Status: StatusSkip, Reason: reason}
}

// Ignore builds an ignored result.
func Ignore(checkID, reason string) CheckResult {
	return CheckResult{CheckID: checkID, Status: StatusIgnore, Reason: reason}
}

// IssueDetails returns the issues map of a result. Both the typed form built
// by Fail and the generic form produced by JSON decoding are accepted.
func (r CheckResult) IssueDetails() map[string]IssueDetails {
	raw, ok := r.Arguments[IssuesArgument]
	if !ok || raw == nil {
		return nil
	}

	out := map[string]IssueDetails{}
	switch v := raw.(type) {
	case map[string]IssueDetails:
		for name, d := range v {
			out[name] = d
		}
	case map[string]map[string]any:
		for name, d := range v {
			out[name] = IssueDetails(d)
		}
	case map[string]any:
		for name, d := range v {
			switch dd := d.(type) {
			case map[string]any:
				out[name] = IssueDetails(dd)
			case IssueDetails:
				out[name] = dd
			default:
				out[name] = IssueDetails{"value": dd}
			}
		}
	default:
		return nil
	}
	return out
}

// IssueNames returns the result's issue names in sorted order.
func (r CheckResult) IssueNames() []string {
	details := r.IssueDetails()
	names := make([]string, 0, len(details))
	for name := range details {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Duration returns how long the check took.
func (r CheckResult) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// MarshalDetails serializes issue details with sorted keys.
func MarshalDetails(d IssueDetails) (string, error) {
	if d == nil {
		d = IssueDetails{}
	}
	b, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
