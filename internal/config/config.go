// Package config loads the client configuration file and the server settings taken
// from the environment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonathan/fittrack/internal/units"
)

// Client defaults.
const (
	DefaultServerURL = "http://localhost:8080"
	DefaultTimeout   = 30 * time.Second
)

// Config is the client configuration. It can be written as YAML (.yaml/.yml) or
// JSON; every field is optional and CLI flags override it.
type Config struct {
	ServerURL   string `json:"server_url,omitempty" yaml:"server_url,omitempty"`     // API server root
	SessionPath string `json:"session_path,omitempty" yaml:"session_path,omitempty"` // Where login stores the session
	Timeout     string `json:"timeout,omitempty" yaml:"timeout,omitempty"`           // Request timeout, e.g. "15s"

	// UnitsPolicy is "follow" (stored metrics use the user's preference) or "fixed".
	UnitsPolicy string `json:"units_policy,omitempty" yaml:"units_policy,omitempty"`
	// FixedUnits is the storage system when UnitsPolicy is "fixed".
	FixedUnits string `json:"fixed_units,omitempty" yaml:"fixed_units,omitempty"`

	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// Defaults returns the built-in client configuration.
func Defaults() Config {
	return Config{
		ServerURL:   DefaultServerURL,
		Timeout:     DefaultTimeout.String(),
		UnitsPolicy: "follow",
	}
}

// LoadConfig reads a config file, choosing the decoder by extension.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}
	return &cfg, nil
}

// Validate checks the values that are set. Empty fields are left to defaults.
func (c *Config) Validate() error {
	if c.ServerURL != "" && !strings.HasPrefix(c.ServerURL, "http://") && !strings.HasPrefix(c.ServerURL, "https://") {
		return fmt.Errorf("config error: 'server_url' must start with http:// or https://")
	}
	if c.Timeout != "" {
		d, err := time.ParseDuration(c.Timeout)
		if err != nil {
			return fmt.Errorf("config error: invalid 'timeout': %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("config error: 'timeout' must be positive")
		}
	}
	if _, err := c.Policy(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// MergeWithDefaults returns a copy with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.ServerURL == "" {
		result.ServerURL = defaults.ServerURL
	}
	if result.SessionPath == "" {
		result.SessionPath = defaults.SessionPath
	}
	if result.Timeout == "" {
		result.Timeout = defaults.Timeout
	}
	if result.UnitsPolicy == "" {
		result.UnitsPolicy = defaults.UnitsPolicy
		if result.FixedUnits == "" {
			result.FixedUnits = defaults.FixedUnits
		}
	}

	// Bools cannot distinguish unset from false; CLI flags win.
	return result
}

// TimeoutDuration parses Timeout, falling back to DefaultTimeout.
func (c *Config) TimeoutDuration() time.Duration {
	if d, err := time.ParseDuration(c.Timeout); err == nil && d > 0 {
		return d
	}
	return DefaultTimeout
}

// Policy builds the canonical unit policy named by the config.
func (c *Config) Policy() (units.Policy, error) {
	return units.PolicyByName(c.UnitsPolicy, c.FixedUnits)
}
