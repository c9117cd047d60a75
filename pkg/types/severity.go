package types

import (
	"fmt"
	"strings"
)

// Severity represents how urgent a failing check is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityLow      Severity = "low"
)

// Severities lists every severity from most to least severe.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityLow}

// SeverityRank returns a numeric rank for sorting (lower = more severe).
func SeverityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityLow:
		return 2
	default:
		return 3
	}
}

// ParseSeverity accepts a severity name in any case.
func ParseSeverity(raw string) (Severity, error) {
	s := Severity(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case SeverityCritical, SeverityHigh, SeverityLow:
		return s, nil
	default:
		return "", fmt.Errorf("unknown severity %q (supported: low, high, critical)", raw)
	}
}

// Status is the outcome of a single check execution.
type Status string

const (
	StatusPass   Status = "pass"
	StatusFail   Status = "fail"
	StatusSkip   Status = "skip"
	StatusIgnore Status = "ignore"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusPass, StatusFail, StatusSkip, StatusIgnore}

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPass, StatusFail, StatusSkip, StatusIgnore:
		return true
	}
	return false
}

// RequirementKind names the kind of precondition a check declares.
type RequirementKind string

const (
	RequirementModule  RequirementKind = "module"
	RequirementConfig  RequirementKind = "config"
	RequirementLibrary RequirementKind = "library"
	RequirementVersion RequirementKind = "version"
)

// Requirement is a precondition a check must satisfy before it may run.
// Version is the minimum module version for module requirements and the
// minimum subsystem version for version requirements.
type Requirement struct {
	Kind    RequirementKind `json:"kind" yaml:"kind"`
	Name    string          `json:"name" yaml:"name"`
	Version string          `json:"version,omitempty" yaml:"version,omitempty"`
}

func (r Requirement) String() string {
	if r.Version != "" {
		return fmt.Sprintf("%s %s >= %s", r.Kind, r.Name, r.Version)
	}
	return fmt.Sprintf("%s %s", r.Kind, r.Name)
}
