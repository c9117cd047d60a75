package check

import (
	"context"
	"errors"
	"fmt"

	"github.com/buemura/advaudit/pkg/types"
)

// ErrSettingsNotFound is returned by stores with no override for a check.
var ErrSettingsNotFound = errors.New("settings not found")

// Settings are the mutable per-check overrides. Nil fields fall back to the
// definition defaults.
type Settings struct {
	Enabled  *bool          `json:"enabled,omitempty"`
	Severity types.Severity `json:"severity,omitempty"`
}

// SettingsStore persists per-check overrides keyed by check id.
type SettingsStore interface {
	GetSettings(ctx context.Context, checkID string) (Settings, error)
	SetSettings(ctx context.Context, checkID string, s Settings) error
	DeleteSettings(ctx context.Context, checkID string) error
}

// Effective applies overrides to a definition.
func Effective(def Definition, s Settings) Definition {
	if s.Enabled != nil {
		def.Enabled = *s.Enabled
	}
	if s.Severity != "" {
		def.Severity = s.Severity
	}
	return def
}

// Resolve loads the overrides of a check and applies them. A store without
// an entry for the check yields the defaults.
func Resolve(ctx context.Context, store SettingsStore, def Definition) (Definition, error) {
	if store == nil {
		return def, nil
	}
	s, err := store.GetSettings(ctx, def.ID)
	if errors.Is(err, ErrSettingsNotFound) {
		return def, nil
	}
	if err != nil {
		return def, fmt.Errorf("loading settings for %q: %w", def.ID, err)
	}
	return Effective(def, s), nil
}

// SetEnabled toggles a check without touching its severity override.
func SetEnabled(ctx context.Context, store SettingsStore, checkID string, enabled bool) error {
	s, err := store.GetSettings(ctx, checkID)
	if err != nil && !errors.Is(err, ErrSettingsNotFound) {
		return err
	}
	s.Enabled = &enabled
	return store.SetSettings(ctx, checkID, s)
}

// SetSeverity overrides a check's severity without touching its enabled flag.
func SetSeverity(ctx context.Context, store SettingsStore, checkID string, sev types.Severity) error {
	s, err := store.GetSettings(ctx, checkID)
	if err != nil && !errors.Is(err, ErrSettingsNotFound) {
		return err
	}
	s.Severity = sev
	return store.SetSettings(ctx, checkID, s)
}
