// Package config provides configuration loading for advaudit.
// It supports a layered configuration approach with priority:
// CLI flags > environment variables (ADVAUDIT_*) > config file (~/.advaudit.yaml).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "ADVAUDIT"

// Profile is a named selection of checks to run together.
type Profile struct {
	Name       string   `mapstructure:"name" yaml:"name"`
	Checks     []string `mapstructure:"checks" yaml:"checks"`
	Categories []string `mapstructure:"categories" yaml:"categories"`
}

// Config holds all advaudit configuration options.
type Config struct {
	SiteFile     string                    `mapstructure:"site_file" yaml:"site_file"`
	Database     string                    `mapstructure:"database" yaml:"database"`
	OutputFormat string                    `mapstructure:"output_format" yaml:"output_format"`
	Concurrency  int                       `mapstructure:"concurrency" yaml:"concurrency"`
	Timeout      time.Duration             `mapstructure:"timeout" yaml:"timeout"`
	LogLevel     string                    `mapstructure:"log_level" yaml:"log_level"`
	Listen       string                    `mapstructure:"listen" yaml:"listen"`
	Checks       map[string]map[string]any `mapstructure:"checks" yaml:"checks"`
	Profiles     []Profile                 `mapstructure:"profiles" yaml:"profiles"`
}

// Defaults returns a Config populated with default values.
func Defaults() Config {
	return Config{
		SiteFile:     "site.yaml",
		Database:     DefaultDatabasePath(),
		OutputFormat: "table",
		Concurrency:  1,
		Timeout:      10 * time.Second,
		LogLevel:     "warn",
		Listen:       ":8080",
	}
}

// Load reads configuration from ~/.advaudit.yaml and environment variables.
// It does NOT apply CLI flag overrides, call ApplyFlags for that.
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName(".advaudit")
	v.SetConfigType("yaml")

	home, err := os.UserHomeDir()
	if err == nil {
		v.AddConfigPath(home)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return decode(v)
}

// Watch loads path and calls onChange with the reloaded configuration every
// time the file changes on disk. A file that fails to decode is reported
// through the error argument and the previous configuration stays valid.
func Watch(path string, onChange func(*Config, error)) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		onChange(decode(v))
	})
	v.WatchConfig()
	return cfg, nil
}

// ApplyFlags overrides config values with any CLI flags that were explicitly set.
func ApplyFlags(cfg *Config, cmd *cobra.Command) {
	flags := cmd.Flags()

	if flags.Changed("site") {
		val, _ := flags.GetString("site")
		cfg.SiteFile = val
	}
	if flags.Changed("db") {
		val, _ := flags.GetString("db")
		cfg.Database = val
	}
	if flags.Changed("output") {
		val, _ := flags.GetString("output")
		cfg.OutputFormat = val
	}
	if flags.Changed("concurrency") {
		val, _ := flags.GetInt("concurrency")
		cfg.Concurrency = val
	}
	if flags.Changed("timeout") {
		val, _ := flags.GetDuration("timeout")
		cfg.Timeout = val
	}
	if flags.Changed("log-level") {
		val, _ := flags.GetString("log-level")
		cfg.LogLevel = val
	}
	if flags.Changed("listen") {
		val, _ := flags.GetString("listen")
		cfg.Listen = val
	}
}

// GetProfile returns the profile with the given name, or nil if not found.
func (c *Config) GetProfile(name string) *Profile {
	for i := range c.Profiles {
		if c.Profiles[i].Name == name {
			return &c.Profiles[i]
		}
	}
	return nil
}

// CheckConfig returns the per-check options of a check, never nil.
func (c *Config) CheckConfig(id string) map[string]any {
	if cfg, ok := c.Checks[strings.ToLower(id)]; ok && cfg != nil {
		return cfg
	}
	return map[string]any{}
}

// ConfigFilePath returns the default config file path (~/.advaudit.yaml).
func ConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".advaudit.yaml"
	}
	return filepath.Join(home, ".advaudit.yaml")
}

// DefaultDatabasePath returns ~/.advaudit/advaudit.db.
func DefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "advaudit.db"
	}
	return filepath.Join(home, ".advaudit", "advaudit.db")
}

func newViper() *viper.Viper {
	v := viper.New()
	d := Defaults()
	v.SetDefault("site_file", d.SiteFile)
	v.SetDefault("database", d.Database)
	v.SetDefault("output_format", d.OutputFormat)
	v.SetDefault("concurrency", d.Concurrency)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("listen", d.Listen)

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := Defaults()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}
