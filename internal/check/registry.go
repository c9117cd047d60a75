package check

import (
	"fmt"
	"sort"
	"sync"

	"github.com/buemura/advaudit/pkg/types"
	"github.com/hashicorp/go-multierror"
)

// Entry is a catalog slot. Unavailable is set when the check could not be
// built; such entries still list but always execute as skip.
type Entry struct {
	Definition  Definition
	Check       Check
	Unavailable error
}

// Available reports whether the entry has a usable check.
func (e Entry) Available() bool {
	return e.Unavailable == nil && e.Check != nil
}

// UnknownCheckError is returned for ids absent from the registry.
type UnknownCheckError struct {
	ID string
}

func (e *UnknownCheckError) Error() string {
	return fmt.Sprintf("unknown check %q", e.ID)
}

// Registry manages checks by id.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewRegistry creates an empty check registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register validates a definition, builds its check and adds it.
func (r *Registry) Register(def Definition) error {
	if err := validateDefinition(def); err != nil {
		return err
	}

	entry := Entry{Definition: def}
	if def.Factory == nil {
		entry.Unavailable = fmt.Errorf("check %q has no implementation", def.ID)
	} else if c, err := def.Factory(); err != nil {
		entry.Unavailable = err
	} else if c == nil {
		entry.Unavailable = fmt.Errorf("check %q factory returned nil", def.ID)
	} else {
		entry.Check = c
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[def.ID]; exists {
		return fmt.Errorf("check %q is already registered", def.ID)
	}
	r.entries[def.ID] = entry
	return nil
}

// RegisterAll registers every definition and reports all failures together.
func (r *Registry) RegisterAll(defs []Definition) error {
	var result *multierror.Error
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// Get retrieves a catalog entry by id.
func (r *Registry) Get(id string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return Entry{}, &UnknownCheckError{ID: id}
	}
	return e, nil
}

// All returns every entry sorted by category then id.
func (r *Registry) All() []Entry {
	r.mu.RLock()
	result := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		result = append(result, e)
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i].Definition, result[j].Definition
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.ID < b.ID
	})
	return result
}

// IDs returns all check ids in catalog order.
func (r *Registry) IDs() []string {
	all := r.All()
	ids := make([]string, len(all))
	for i, e := range all {
		ids[i] = e.Definition.ID
	}
	return ids
}

// Categories returns the distinct categories in sorted order.
func (r *Registry) Categories() []string {
	seen := map[string]bool{}
	var cats []string
	for _, e := range r.All() {
		if !seen[e.Definition.Category] {
			seen[e.Definition.Category] = true
			cats = append(cats, e.Definition.Category)
		}
	}
	return cats
}

func validateDefinition(def Definition) error {
	var result *multierror.Error
	if def.ID == "" {
		result = multierror.Append(result, fmt.Errorf("check id cannot be empty"))
	}
	if def.Category == "" {
		result = multierror.Append(result, fmt.Errorf("check %q has no category", def.ID))
	}
	switch def.Severity {
	case types.SeverityLow, types.SeverityHigh, types.SeverityCritical:
	default:
		result = multierror.Append(result, fmt.Errorf("check %q has invalid severity %q", def.ID, def.Severity))
	}
	for _, req := range def.Requirements {
		switch req.Kind {
		case types.RequirementModule, types.RequirementConfig, types.RequirementLibrary, types.RequirementVersion:
		default:
			result = multierror.Append(result, fmt.Errorf("check %q declares unknown requirement kind %q", def.ID, req.Kind))
		}
	}
	return result.ErrorOrNil()
}
