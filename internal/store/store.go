package store

import (
	"github.com/buemura/advaudit/internal/audit"
	"github.com/buemura/advaudit/internal/check"
	"github.com/buemura/advaudit/internal/issue"
)

// MemoryPath selects the in-memory store in Open.
const MemoryPath = ":memory:"

// Store bundles every contract the audit engine persists through.
type Store interface {
	issue.Store
	audit.ReportStore
	check.SettingsStore
	Close() error
}

// Open returns a bbolt store at path, or a memory store for MemoryPath or
// an empty path.
func Open(path string) (Store, error) {
	if path == "" || path == MemoryPath {
		return NewMemory(), nil
	}
	return OpenBolt(path)
}
