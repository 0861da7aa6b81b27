// Package config provides configuration loading for the fleetdesk console.
//
// Configuration comes from fleetdesk.yaml (searched in ., ~/.fleetdesk,
// and /etc/fleetdesk), overridable via FLEETDESK_* environment variables.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level configuration for the console.
type Config struct {
	// Backend configures the remote fleet API the console talks to.
	Backend BackendConfig `yaml:"backend" mapstructure:"backend"`

	// Console configures the local HTTP listener serving the UI.
	Console ConsoleConfig `yaml:"console" mapstructure:"console"`

	// Session configures where the operator's credentials are persisted.
	Session SessionConfig `yaml:"session" mapstructure:"session"`

	// Audit configures the local SQLite audit trail.
	Audit AuditConfig `yaml:"audit" mapstructure:"audit"`

	// Tracing enables stdout span export for backend calls.
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`

	// DevMode enables development features (verbose logging, etc).
	DevMode bool `yaml:"dev_mode" mapstructure:"dev_mode"`
}

// BackendConfig points the console at the fleet API.
type BackendConfig struct {
	// URL is the backend base URL, e.g. "http://localhost:8000".
	URL string `yaml:"url" mapstructure:"url" validate:"required,url"`
	// Timeout is the per-request timeout as a duration string, e.g. "10s".
	Timeout string `yaml:"timeout" mapstructure:"timeout" validate:"omitempty,duration"`
	// ListCacheTTL is how long vehicle list responses are cached, e.g. "5s".
	ListCacheTTL string `yaml:"list_cache_ttl" mapstructure:"list_cache_ttl" validate:"omitempty,duration"`
}

// TimeoutDuration returns the parsed request timeout.
func (b BackendConfig) TimeoutDuration() time.Duration {
	return parseDuration(b.Timeout, 10*time.Second)
}

// ListCacheTTLDuration returns the parsed list cache TTL.
func (b BackendConfig) ListCacheTTLDuration() time.Duration {
	return parseDuration(b.ListCacheTTL, 5*time.Second)
}

// ConsoleConfig configures the local listener.
type ConsoleConfig struct {
	// Addr is the listen address. The console is a single-operator tool;
	// bind it to loopback unless you know what you are doing.
	Addr string `yaml:"addr" mapstructure:"addr" validate:"required,listen_addr"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
	// PageSize is the vehicle list page size.
	PageSize int `yaml:"page_size" mapstructure:"page_size" validate:"omitempty,min=1,max=500"`
}

// SessionConfig configures credential persistence.
type SessionConfig struct {
	// Path is the session.json location. Default: ~/.fleetdesk/session.json.
	Path string `yaml:"path" mapstructure:"path"`
}

// AuditConfig configures the local audit trail.
type AuditConfig struct {
	// Enabled controls whether session/vehicle events are recorded.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Path is the SQLite database location. Default: ~/.fleetdesk/audit.db.
	Path string `yaml:"path" mapstructure:"path"`
	// Retention is how many events to keep when pruning.
	Retention int `yaml:"retention" mapstructure:"retention" validate:"omitempty,min=10"`
}

// TracingConfig configures span export.
type TracingConfig struct {
	// Enabled turns on stdout span export. Default: false.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// SetDefaults fills unset fields with working defaults.
func (c *Config) SetDefaults() {
	if c.Backend.URL == "" {
		c.Backend.URL = "http://localhost:8000"
	}
	if c.Backend.Timeout == "" {
		c.Backend.Timeout = "10s"
	}
	if c.Console.Addr == "" {
		c.Console.Addr = "127.0.0.1:7460"
	}
	if c.Console.LogLevel == "" {
		c.Console.LogLevel = "info"
	}
	if c.Console.PageSize == 0 {
		c.Console.PageSize = 10
	}
	if c.Session.Path == "" {
		c.Session.Path = defaultHomePath("session.json")
	}
	if c.Audit.Path == "" {
		c.Audit.Path = defaultHomePath("audit.db")
	}
	if c.Audit.Retention == 0 {
		c.Audit.Retention = 1000
	}
}

// defaultHomePath resolves ~/.fleetdesk/<name>, falling back to the
// working directory when the home directory is unknown.
func defaultHomePath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".fleetdesk", name)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// LoadRaw unmarshals the current Viper state into a Config without
// validating. Callers apply CLI overrides, then SetDefaults and Validate.
func LoadRaw() (*Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env cover it.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ConfigFileUsed returns the config file Viper loaded, if any.
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}
