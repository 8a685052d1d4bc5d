package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"COPILOT_URL", "COPILOT_TIMEOUT", "COPILOT_RPS", "LOG_LEVEL", "LOG_DEV"} {
		t.Setenv(key, "") // register restore
		os.Unsetenv(key)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.Backend.BaseURL)
	assert.Equal(t, 60*time.Second, cfg.Backend.Timeout)
	assert.Zero(t, cfg.Backend.RequestsPerSecond)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("COPILOT_URL", "https://copilot.internal")
	t.Setenv("COPILOT_TIMEOUT", "5s")
	t.Setenv("COPILOT_RPS", "2.5")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_DEV", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://copilot.internal", cfg.Backend.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 2.5, cfg.Backend.RequestsPerSecond)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
}

func TestLoadOrDefaultFallsBack(t *testing.T) {
	t.Setenv("COPILOT_TIMEOUT", "not-a-duration")

	cfg := LoadOrDefault()
	assert.Equal(t, 60*time.Second, cfg.Backend.Timeout)
}
