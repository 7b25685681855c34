// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime settings, read once at startup.
type Config struct {
	// DataDir is where the database lives when DBPath is not set
	// explicitly. Defaults to ~/.handoff.
	DataDir string `envconfig:"DATA_DIR"`

	// DBPath overrides the full database file path.
	DBPath string `envconfig:"DB_PATH"`

	// DashboardAddr is the listen address for the web dashboard.
	DashboardAddr string `envconfig:"DASHBOARD_ADDR" default:":7347"`

	// LogLevel is a zerolog level name (debug, info, warn, error).
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads configuration from HANDOFF_-prefixed environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("HANDOFF", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("config: resolve home dir: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".handoff")
	}
	return &cfg, nil
}

// DatabasePath returns the effective database file location.
func (c *Config) DatabasePath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return filepath.Join(c.DataDir, "handoff.db")
}
