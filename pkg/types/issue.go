package types

import (
	"fmt"
	"strings"
	"time"
)

// IssueStatus is the lifecycle state of a durable issue.
type IssueStatus string

const (
	IssueOpen    IssueStatus = "open"
	IssueFixed   IssueStatus = "fixed"
	IssueIgnored IssueStatus = "ignored"
)

// ParseIssueStatus validates a status name.
func ParseIssueStatus(raw string) (IssueStatus, error) {
	s := IssueStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case IssueOpen, IssueFixed, IssueIgnored:
		return s, nil
	default:
		return "", fmt.Errorf("unknown issue status %q (supported: open, fixed, ignored)", raw)
	}
}

// IssueKey builds the composite key of an issue.
func IssueKey(checkID, name string) string {
	return checkID + "." + name
}

// Issue is a durable, individually tracked problem raised by a failing check.
type Issue struct {
	Key       string          `json:"key"`
	CheckID   string          `json:"check_id"`
	Name      string          `json:"name"`
	Title     string          `json:"title"`
	Details   string          `json:"details"`
	Status    IssueStatus     `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Revisions []IssueRevision `json:"revisions,omitempty"`
}

// IssueRevision records one change to an issue.
type IssueRevision struct {
	Status  IssueStatus `json:"status"`
	Title   string      `json:"title"`
	Details string      `json:"details"`
	Message string      `json:"message,omitempty"`
	At      time.Time   `json:"at"`
}

// IsOpen reports whether the issue still needs action.
func (i Issue) IsOpen() bool {
	return i.Status == IssueOpen
}
