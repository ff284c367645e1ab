// Package config resolves the effective dropship configuration from the
// three-layer override chain: defaults → TOML config file → environment
// variables. CLI flags are applied by the command layer on top, so flags
// always win.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Application directory name used across all platforms.
const appName = "dropship"

// Config file name inside the config directory.
const configFileName = "config.toml"

// Environment variable names for overrides.
const (
	EnvConfig   = "DROPSHIP_CONFIG"
	EnvAppKey   = "DROPSHIP_APP_KEY"
	EnvLogLevel = "DROPSHIP_LOG_LEVEL"
)

// Config is the TOML config file shape plus resolved defaults.
type Config struct {
	// AppKey identifies the Dropbox application this tool authenticates as.
	// You will want to register your own app key for each new app you write.
	AppKey string `toml:"app_key"`

	// LogLevel is one of error, warn, info, debug. CLI flags override it.
	LogLevel string `toml:"log_level"`

	// CredentialsPath is where the refresh-token record lives.
	CredentialsPath string `toml:"credentials_path"`

	// HistoryPath is the SQLite transfer-history database.
	HistoryPath string `toml:"history_path"`
}

// DefaultConfigDir returns the per-user config directory, respecting
// XDG_CONFIG_HOME (defaults to ~/.config/dropship).
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".config", appName)
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), configFileName)
}

// defaults returns a Config populated with all default values, supporting a
// zero-config first run (only the app key is genuinely required).
func defaults() *Config {
	dir := DefaultConfigDir()

	return &Config{
		LogLevel:        "warn",
		CredentialsPath: filepath.Join(dir, "credentials.toml"),
		HistoryPath:     filepath.Join(dir, "history.db"),
	}
}

// Load reads the config file at path (or the default path when path is
// empty), applies environment overrides, and returns the resolved Config.
// A missing config file is fine; malformed TOML is not.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfig)
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	cfg := defaults()

	if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if v := os.Getenv(EnvAppKey); v != "" {
		cfg.AppKey = v
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}

	return cfg, nil
}
