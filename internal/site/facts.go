// Package site loads the facts snapshot of an audited site.
//
// A snapshot describes one installation: core and runtime versions, the
// enabled modules, configuration objects, libraries, users and the public
// base URL. It is produced by an exporter running next to the site and
// read by every check.
package site

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/buemura/advaudit/pkg/types"
	"gopkg.in/yaml.v3"
)

// Module is one installed extension.
type Module struct {
	Version string `yaml:"version"`
	Enabled bool   `yaml:"enabled"`
}

// User is an account relevant to the audit.
type User struct {
	ID      int      `yaml:"id"`
	Name    string   `yaml:"name"`
	Roles   []string `yaml:"roles"`
	Blocked bool     `yaml:"blocked"`
}

// Facts is a snapshot of a site.
type Facts struct {
	Name      string                    `yaml:"name"`
	BaseURL   string                    `yaml:"base_url"`
	Versions  map[string]string         `yaml:"versions"`
	Modules   map[string]Module         `yaml:"modules"`
	Config    map[string]map[string]any `yaml:"config"`
	Libraries []string                  `yaml:"libraries"`
	Users     []User                    `yaml:"users"`
	Settings  map[string]any            `yaml:"settings"`
	CronLast  time.Time                 `yaml:"cron_last_run"`
}

// Load reads a facts snapshot from a YAML file.
func Load(path string) (*Facts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading site facts: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML facts snapshot.
func Parse(data []byte) (*Facts, error) {
	var f Facts
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing site facts: %w", err)
	}
	f.normalize()
	return &f, nil
}

func (f *Facts) normalize() {
	if f.Versions == nil {
		f.Versions = map[string]string{}
	}
	if f.Modules == nil {
		f.Modules = map[string]Module{}
	}
	if f.Config == nil {
		f.Config = map[string]map[string]any{}
	}
	if f.Settings == nil {
		f.Settings = map[string]any{}
	}
}

// Module returns the version of an enabled module.
func (f *Facts) Module(name string) (string, bool) {
	m, ok := f.Modules[name]
	if !ok || !m.Enabled {
		return "", false
	}
	return m.Version, true
}

// HasConfig reports whether a configuration object exists.
func (f *Facts) HasConfig(name string) bool {
	_, ok := f.Config[name]
	return ok
}

// HasLibrary reports whether a library is installed.
func (f *Facts) HasLibrary(name string) bool {
	for _, l := range f.Libraries {
		if strings.EqualFold(l, name) {
			return true
		}
	}
	return false
}

// Version returns the current version of a subsystem such as "core" or "php".
func (f *Facts) Version(subsystem string) (string, bool) {
	v, ok := f.Versions[subsystem]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// ConfigValue looks up a dotted key inside a configuration object, e.g.
// ConfigValue("system.performance", "cache.page.max_age").
func (f *Facts) ConfigValue(object, key string) (any, bool) {
	obj, ok := f.Config[object]
	if !ok {
		return nil, false
	}
	var cur any = obj
	for _, part := range strings.Split(key, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Setting returns a raw settings.php value.
func (f *Facts) Setting(name string) (any, bool) {
	v, ok := f.Settings[name]
	return v, ok
}

// Target returns the parsed base URL.
func (f *Facts) Target() (types.Target, error) {
	if f.BaseURL == "" {
		return types.Target{}, fmt.Errorf("site facts have no base_url")
	}
	return types.ParseTarget(f.BaseURL)
}

// ConfigBool returns a boolean configuration value.
func (f *Facts) ConfigBool(object, key string) (bool, bool) {
	v, ok := f.ConfigValue(object, key)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// ConfigInt returns an integer configuration value.
func (f *Facts) ConfigInt(object, key string) (int, bool) {
	v, ok := f.ConfigValue(object, key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

// ConfigString returns a string configuration value.
func (f *Facts) ConfigString(object, key string) (string, bool) {
	v, ok := f.ConfigValue(object, key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}
