// Package config loads data layer configuration from config/drivedocs.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the client data layer configuration.
type Config struct {
	// APIURL is the base URL of the DriveDocs REST API.
	APIURL string `yaml:"api_url"`

	// Timeout for HTTP requests.
	Timeout time.Duration `yaml:"timeout"`

	// SessionFile is where the file-backed session storage persists the session.
	SessionFile string `yaml:"session_file"`

	// RequestsPerSecond limits outbound API calls. Zero disables limiting.
	RequestsPerSecond int `yaml:"requests_per_second"`

	// RequestBurst is the rate limiter burst size.
	RequestBurst int `yaml:"request_burst"`

	// Resilience enables the retrying transport for transient server failures.
	Resilience bool `yaml:"resilience"`

	Log LogConfig `yaml:"log"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Load reads the configuration from config/drivedocs.yaml.
func Load() (*Config, error) {
	return LoadFromPath(filepath.Join("config", "drivedocs.yaml"))
}

// LoadFromPath reads the configuration from a specific path and applies
// environment overrides.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()

	if cfg.APIURL == "" {
		return nil, fmt.Errorf("api_url is required (set DRIVEDOCS_API_URL or api_url in %s)", path)
	}
	return cfg, nil
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Timeout:           30 * time.Second,
		SessionFile:       defaultSessionFile(),
		RequestsPerSecond: 0,
		RequestBurst:      5,
		Log:               LogConfig{Level: "info"},
	}
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".drivedocs-session.json"
	}
	return filepath.Join(dir, "drivedocs", "session.json")
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DRIVEDOCS_API_URL"); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv("DRIVEDOCS_SESSION_FILE"); v != "" {
		c.SessionFile = v
	}
	if v := os.Getenv("DRIVEDOCS_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("DRIVEDOCS_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Timeout = d
		}
	}
}
