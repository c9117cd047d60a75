package check

import (
	"context"
	"errors"
	"testing"

	"github.com/buemura/advaudit/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCheck struct {
	result *types.CheckResult
	err    error
}

func (m *mockCheck) Perform(_ context.Context, req Request) (*types.CheckResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	r := types.Pass(req.Definition.ID, "mock pass")
	return &r, nil
}

func def(id, category string, c Check) Definition {
	return Definition{
		ID:       id,
		Label:    id,
		Category: category,
		Severity: types.SeverityHigh,
		Enabled:  true,
		Factory:  func() (Check, error) { return c, nil },
	}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	c := &mockCheck{}
	require.NoError(t, r.Register(def("test", "security", c)))

	got, err := r.Get("test")
	require.NoError(t, err)
	assert.Equal(t, c, got.Check)
	assert.True(t, got.Available())
}

func TestRegistry_GetNotFound(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown check")

	var unknown *UnknownCheckError
	assert.True(t, errors.As(err, &unknown))
	assert.Equal(t, "nonexistent", unknown.ID)
}

func TestRegistry_Duplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(def("a", "security", &mockCheck{})))
	err := r.Register(def("a", "security", &mockCheck{}))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegistry_FactoryFailureIsUnavailable(t *testing.T) {
	r := NewRegistry()
	d := def("broken", "server", nil)
	d.Factory = func() (Check, error) { return nil, errors.New("service missing") }
	require.NoError(t, r.Register(d))

	e, err := r.Get("broken")
	require.NoError(t, err)
	assert.False(t, e.Available())
	assert.EqualError(t, e.Unavailable, "service missing")
	assert.Len(t, r.All(), 1)
}

func TestRegistry_NilFactory(t *testing.T) {
	r := NewRegistry()
	d := def("nofactory", "server", nil)
	d.Factory = nil
	require.NoError(t, r.Register(d))

	e, _ := r.Get("nofactory")
	assert.False(t, e.Available())

	d2 := def("nilcheck", "server", nil)
	d2.Factory = func() (Check, error) { return nil, nil }
	require.NoError(t, r.Register(d2))
	e, _ = r.Get("nilcheck")
	assert.False(t, e.Available())
}

func TestRegistry_InvalidDefinition(t *testing.T) {
	r := NewRegistry()
	err := r.Register(Definition{ID: "", Severity: "medium"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id cannot be empty")
	assert.Contains(t, err.Error(), "invalid severity")
	assert.Contains(t, err.Error(), "no category")
}

func TestRegistry_InvalidRequirementKind(t *testing.T) {
	d := def("x", "security", &mockCheck{})
	d.Requirements = []types.Requirement{{Kind: "service", Name: "cache"}}
	err := NewRegistry().Register(d)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown requirement kind")
}

func TestRegistry_RegisterAllCollectsErrors(t *testing.T) {
	r := NewRegistry()
	err := r.RegisterAll([]Definition{
		def("ok", "security", &mockCheck{}),
		{ID: "bad1"},
		{ID: "bad2"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad1")
	assert.Contains(t, err.Error(), "bad2")
	assert.Len(t, r.All(), 1)

	assert.NoError(t, NewRegistry().RegisterAll([]Definition{def("a", "x", &mockCheck{})}))
}

func TestRegistry_AllSortedByCategoryThenID(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(def("b", "security", &mockCheck{})))
	require.NoError(t, r.Register(def("a", "security", &mockCheck{})))
	require.NoError(t, r.Register(def("z", "performance", &mockCheck{})))

	assert.Equal(t, []string{"z", "a", "b"}, r.IDs())
	assert.Equal(t, []string{"performance", "security"}, r.Categories())
}
