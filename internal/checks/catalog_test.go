package checks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	ids := reg.IDs()
	assert.Len(t, ids, 14)
	for _, id := range []string{"admin_username", "views_cache", "http_headers", "tls_certificate", "exposed_files"} {
		assert.Contains(t, ids, id)
	}
	for _, e := range reg.All() {
		assert.True(t, e.Available(), e.Definition.ID)
		assert.NotEmpty(t, e.Definition.Label, e.Definition.ID)
		assert.NotEmpty(t, e.Definition.Description, e.Definition.ID)
	}
}

func TestCategories(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)
	assert.Equal(t, []string{CategoryArchitecture, CategoryPerformance, CategorySecurity, CategoryServer}, reg.Categories())
}

func TestDefinitions_UniqueIDs(t *testing.T) {
	seen := map[string]bool{}
	for _, d := range Definitions() {
		assert.False(t, seen[d.ID], "duplicate id %s", d.ID)
		seen[d.ID] = true
	}
}
