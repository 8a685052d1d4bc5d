package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all client configuration.
type Config struct {
	Backend BackendConfig
	Cache   CacheConfig
	Auth    AuthConfig
	Logging LogConfig
}

// BackendConfig holds settings for the copilot backend connection.
type BackendConfig struct {
	BaseURL           string        `envconfig:"COPILOT_URL" default:"http://localhost:8000"`
	Timeout           time.Duration `envconfig:"COPILOT_TIMEOUT" default:"60s"`
	RequestsPerSecond float64       `envconfig:"COPILOT_RPS" default:"0"`
}

// CacheConfig holds the session snapshot location. An empty path means the
// per-user default under os.UserConfigDir.
type CacheConfig struct {
	Path string `envconfig:"COPILOT_CACHE" default:""`
}

// AuthConfig holds the credential file location. Empty means the per-user
// default under os.UserConfigDir.
type AuthConfig struct {
	TokenFile string `envconfig:"COPILOT_TOKEN_FILE" default:""`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"warn"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL: "http://localhost:8000",
			Timeout: 60 * time.Second,
		},
		Logging: LogConfig{
			Level:       "warn",
			Development: false,
		},
	}
}
