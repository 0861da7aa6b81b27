package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// InitViper initializes Viper with the configuration file and environment
// variables. If configFile is empty, it searches for fleetdesk.yaml/.yml
// in standard locations. The search requires an explicit YAML extension so
// the binary itself (same base name, no extension) is never matched.
func InitViper(configFile string) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else if found := findConfigFile(); found != "" {
		viper.SetConfigFile(found)
	} else {
		// No config file found in any standard location. Set name/type
		// without search paths so ReadInConfig returns
		// ConfigFileNotFoundError (handled gracefully by callers).
		viper.SetConfigName("fleetdesk")
		viper.SetConfigType("yaml")
	}

	// Environment variable support: FLEETDESK_BACKEND_URL etc.
	viper.SetEnvPrefix("FLEETDESK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	bindNestedEnvKeys()
}

// findConfigFile searches standard locations for a fleetdesk config file
// with an explicit YAML extension (.yaml or .yml).
func findConfigFile() string {
	home, _ := os.UserHomeDir()
	paths := []string{
		".",
		filepath.Join(home, ".fleetdesk"),
	}
	if runtime.GOOS == "windows" {
		if pd := os.Getenv("ProgramData"); pd != "" {
			paths = append(paths, filepath.Join(pd, "fleetdesk"))
		}
	} else {
		paths = append(paths, "/etc/fleetdesk")
	}
	return findConfigFileInPaths(paths)
}

// findConfigFileInPaths searches the given directories for fleetdesk.yaml
// or .yml. Returns the full path of the first match, or "" if none found.
func findConfigFileInPaths(paths []string) string {
	for _, dir := range paths {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, "fleetdesk"+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// bindNestedEnvKeys binds all config keys for environment variable
// support. Example: FLEETDESK_BACKEND_URL overrides backend.url.
func bindNestedEnvKeys() {
	_ = viper.BindEnv("backend.url")
	_ = viper.BindEnv("backend.timeout")
	_ = viper.BindEnv("backend.list_cache_ttl")

	_ = viper.BindEnv("console.addr")
	_ = viper.BindEnv("console.log_level")
	_ = viper.BindEnv("console.page_size")

	_ = viper.BindEnv("session.path")

	_ = viper.BindEnv("audit.enabled")
	_ = viper.BindEnv("audit.path")
	_ = viper.BindEnv("audit.retention")

	_ = viper.BindEnv("tracing.enabled")

	_ = viper.BindEnv("dev_mode")
}
