package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://localhost/campaigns
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 60*time.Second, cfg.Scheduler.Interval())
	assert.Equal(t, 55*time.Second, cfg.Scheduler.LockTTL())
	assert.Equal(t, 10, cfg.Email.BatchSize)
	assert.Equal(t, 5*time.Minute, cfg.Email.BatchDelay())
	assert.Equal(t, "relay", cfg.Email.DefaultProvider)
	assert.Equal(t, 30*time.Second, cfg.Social.Timeout())
	assert.Equal(t, "http://localhost:8080", cfg.Tracking.BaseURL)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.SES.Enabled)
}

func TestLoadExplicitValues(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
scheduler:
  interval_seconds: 30
  recompute_stats: true
email:
  batch_size: 25
  batch_delay_minutes: 2
relay:
  base_url: https://relay.internal
  enabled: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.Interval())
	assert.True(t, cfg.Scheduler.RecomputeStats)
	assert.Equal(t, 25, cfg.Email.BatchSize)
	assert.Equal(t, 2*time.Minute, cfg.Email.BatchDelay())
	assert.Equal(t, "https://relay.internal", cfg.Relay.BaseURL)
	assert.True(t, cfg.Relay.Enabled)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://localhost/campaigns
tracking:
  signing_key: from-file
`)

	t.Setenv("DATABASE_URL", "postgres://prod-db/campaigns")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("TRACKING_SIGNING_KEY", "from-env")
	t.Setenv("RELAY_API_KEY", "rk_test")

	cfg, err := LoadFromEnv(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://prod-db/campaigns", cfg.Database.URL)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "from-env", cfg.Tracking.SigningKey)
	assert.Equal(t, "rk_test", cfg.Relay.APIKey)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
