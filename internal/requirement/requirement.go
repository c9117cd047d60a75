// Package requirement decides whether a check is eligible to run against
// the current environment.
package requirement

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/buemura/advaudit/pkg/types"
)

// Environment exposes the facts requirements are evaluated against.
type Environment interface {
	Module(name string) (version string, enabled bool)
	HasConfig(name string) bool
	HasLibrary(name string) bool
	Version(subsystem string) (version string, known bool)
}

// Error describes the first unmet requirement of a check.
type Error struct {
	Kind   types.RequirementKind
	Name   string
	Want   string
	Have   string
	Reason string
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "requirement %s %q not met: %s", e.Kind, e.Name, e.Reason)
	if e.Want != "" {
		fmt.Fprintf(&b, " (want >= %s", e.Want)
		if e.Have != "" {
			fmt.Fprintf(&b, ", have %s", e.Have)
		}
		b.WriteString(")")
	}
	return b.String()
}

// Validator checks requirement lists against an Environment.
type Validator struct {
	env Environment
}

// NewValidator creates a validator reading facts from env.
func NewValidator(env Environment) *Validator {
	return &Validator{env: env}
}

// Validate returns nil when every requirement holds, or an *Error for the
// first one that does not.
func (v *Validator) Validate(reqs []types.Requirement) error {
	for _, req := range reqs {
		if err := v.validateOne(req); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) validateOne(req types.Requirement) error {
	if req.Name == "" {
		return &Error{Kind: req.Kind, Reason: "requirement has no name"}
	}

	switch req.Kind {
	case types.RequirementModule:
		have, ok := v.env.Module(req.Name)
		if !ok {
			return &Error{Kind: req.Kind, Name: req.Name, Want: req.Version, Reason: "module is not enabled"}
		}
		if req.Version == "" {
			return nil
		}
		return compare(req, have)

	case types.RequirementConfig:
		if !v.env.HasConfig(req.Name) {
			return &Error{Kind: req.Kind, Name: req.Name, Reason: "configuration object does not exist"}
		}
		return nil

	case types.RequirementLibrary:
		if !v.env.HasLibrary(req.Name) {
			return &Error{Kind: req.Kind, Name: req.Name, Reason: "library is not installed"}
		}
		return nil

	case types.RequirementVersion:
		if req.Version == "" {
			return &Error{Kind: req.Kind, Name: req.Name, Reason: "no version given"}
		}
		have, ok := v.env.Version(req.Name)
		if !ok {
			// Unknown current version passes.
			return nil
		}
		return compare(req, have)

	default:
		return &Error{Kind: req.Kind, Name: req.Name, Reason: "unknown requirement kind"}
	}
}

// compare fails when have is lower than req.Version.
func compare(req types.Requirement, have string) error {
	want, err := ParseVersion(req.Version)
	if err != nil {
		return &Error{Kind: req.Kind, Name: req.Name, Want: req.Version, Reason: fmt.Sprintf("invalid required version: %v", err)}
	}
	if have == "" {
		return nil
	}
	current, err := ParseVersion(have)
	if err != nil {
		return &Error{Kind: req.Kind, Name: req.Name, Want: req.Version, Have: have, Reason: fmt.Sprintf("unparsable current version: %v", err)}
	}
	if current.LessThan(want) {
		return &Error{Kind: req.Kind, Name: req.Name, Want: req.Version, Have: have, Reason: "version too old"}
	}
	return nil
}

// ParseVersion parses a version string. Contrib style versions such as
// "8.x-1.3" drop their core compatibility prefix.
func ParseVersion(raw string) (*semver.Version, error) {
	raw = strings.TrimSpace(raw)
	if i := strings.Index(raw, ".x-"); i >= 0 {
		raw = raw[i+3:]
	}
	return semver.NewVersion(raw)
}

// Compare reports -1, 0 or 1 comparing two version strings.
func Compare(a, b string) (int, error) {
	va, err := ParseVersion(a)
	if err != nil {
		return 0, err
	}
	vb, err := ParseVersion(b)
	if err != nil {
		return 0, err
	}
	return va.Compare(vb), nil
}
