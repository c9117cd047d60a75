// Package checks assembles the built-in check catalog.
package checks

import (
	"github.com/buemura/advaudit/internal/check"
	"github.com/buemura/advaudit/internal/checks/facts"
	"github.com/buemura/advaudit/internal/checks/files"
	"github.com/buemura/advaudit/internal/checks/headers"
	"github.com/buemura/advaudit/internal/checks/tls"
	"github.com/buemura/advaudit/pkg/types"
)

// Categories of the built-in checks.
const (
	CategorySecurity     = "security"
	CategoryPerformance  = "performance"
	CategoryServer       = "server"
	CategoryArchitecture = "architecture"
)

// Definitions returns every built-in check.
func Definitions() []check.Definition {
	defs := facts.Definitions()
	return append(defs,
		check.Definition{
			ID:          headers.ID,
			Label:       "HTTP security headers",
			Description: "The front page must send the usual security headers.",
			Category:    CategorySecurity,
			Severity:    types.SeverityHigh,
			Enabled:     true,
			Factory:     headers.New,
		},
		check.Definition{
			ID:          tls.ID,
			Label:       "TLS certificate",
			Description: "The site must negotiate modern TLS with a valid certificate.",
			Category:    CategorySecurity,
			Severity:    types.SeverityCritical,
			Enabled:     true,
			Factory:     tls.New,
		},
		check.Definition{
			ID:          files.ID,
			Label:       "Exposed files",
			Description: "Changelogs, installers and lock files must not be publicly readable.",
			Category:    CategorySecurity,
			Severity:    types.SeverityHigh,
			Enabled:     true,
			Factory:     files.New,
		},
	)
}

// NewRegistry builds a registry holding the whole catalog. Checks whose
// factory fails are registered as unavailable.
func NewRegistry() (*check.Registry, error) {
	reg := check.NewRegistry()
	if err := reg.RegisterAll(Definitions()); err != nil {
		return nil, err
	}
	return reg, nil
}
