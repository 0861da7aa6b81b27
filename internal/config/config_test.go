package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

func TestSetDefaults(t *testing.T) {
	cfg := validConfig()

	if cfg.Backend.URL != "http://localhost:8000" {
		t.Errorf("Backend.URL = %q", cfg.Backend.URL)
	}
	if cfg.Console.Addr != "127.0.0.1:7460" {
		t.Errorf("Console.Addr = %q", cfg.Console.Addr)
	}
	if cfg.Console.LogLevel != "info" {
		t.Errorf("Console.LogLevel = %q", cfg.Console.LogLevel)
	}
	if cfg.Console.PageSize != 10 {
		t.Errorf("Console.PageSize = %d", cfg.Console.PageSize)
	}
	if cfg.Session.Path == "" {
		t.Error("Session.Path not defaulted")
	}
	if cfg.Audit.Retention != 1000 {
		t.Errorf("Audit.Retention = %d", cfg.Audit.Retention)
	}
}

func TestSetDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Backend.URL = "http://fleet.example:9000"
	cfg.Console.PageSize = 25
	cfg.SetDefaults()

	if cfg.Backend.URL != "http://fleet.example:9000" {
		t.Errorf("Backend.URL = %q, want explicit value kept", cfg.Backend.URL)
	}
	if cfg.Console.PageSize != 25 {
		t.Errorf("Console.PageSize = %d, want 25", cfg.Console.PageSize)
	}
}

func TestValidateDefaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("default config failed validation: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"missing backend url", func(c *Config) { c.Backend.URL = "" }, "backend.url"},
		{"invalid backend url", func(c *Config) { c.Backend.URL = "not a url" }, "backend.url"},
		{"invalid timeout", func(c *Config) { c.Backend.Timeout = "yesterday" }, "backend.timeout"},
		{"negative timeout", func(c *Config) { c.Backend.Timeout = "-5s" }, "backend.timeout"},
		{"bad listen addr", func(c *Config) { c.Console.Addr = "no-port" }, "console.addr"},
		{"bad log level", func(c *Config) { c.Console.LogLevel = "loud" }, "console.log_level"},
		{"page size too big", func(c *Config) { c.Console.PageSize = 9999 }, "console.page_size"},
		{"retention too small", func(c *Config) { c.Audit.Retention = 1 }, "audit.retention"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestValidateAcceptsPortOnlyAddr(t *testing.T) {
	cfg := validConfig()
	cfg.Console.Addr = ":8080"
	if err := cfg.Validate(); err != nil {
		t.Errorf("port-only listen address rejected: %v", err)
	}
}

func TestDurationAccessors(t *testing.T) {
	cfg := validConfig()
	if got := cfg.Backend.TimeoutDuration(); got != 10*time.Second {
		t.Errorf("TimeoutDuration = %v, want 10s", got)
	}

	cfg.Backend.Timeout = "30s"
	if got := cfg.Backend.TimeoutDuration(); got != 30*time.Second {
		t.Errorf("TimeoutDuration = %v, want 30s", got)
	}

	// Unparseable values fall back instead of failing.
	cfg.Backend.ListCacheTTL = "soon"
	if got := cfg.Backend.ListCacheTTLDuration(); got != 5*time.Second {
		t.Errorf("ListCacheTTLDuration = %v, want 5s fallback", got)
	}
}

func TestFindConfigFileRequiresYAMLExtension(t *testing.T) {
	// A directory containing only a binary named "fleetdesk" (no
	// extension) must not be picked up as a config file.
	dir := t.TempDir()
	if got := findConfigFileInPaths([]string{dir}); got != "" {
		t.Errorf("findConfigFileInPaths = %q, want none", got)
	}
}
