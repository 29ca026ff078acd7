package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFileAndDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
auth:
  secret: s3cret
storage:
  driver: Memory
outbox:
  poll_interval: 2s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "s3cret", cfg.Auth.Secret)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, 2*time.Second, cfg.Outbox.PollInterval)

	// untouched keys fall back to defaults
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 100, cfg.Outbox.BatchSize)
	assert.Equal(t, 7*24*time.Hour, cfg.Outbox.RetentionPeriod)
	assert.Equal(t, 5*time.Minute, cfg.Cache.DefaultTTL)
	assert.Equal(t, 8081, cfg.Worker.HealthPort)
	assert.Contains(t, cfg.CORS.AllowedMethods, "PATCH")
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
auth:
  secret: from-file
database:
  host: db.internal
`)
	t.Setenv("HMS_DATABASE_HOST", "db.override")
	t.Setenv("HMS_AUTH_SECRET", "from-env")
	t.Setenv("HMS_OUTBOX_BATCH_SIZE", "25")
	t.Setenv("HMS_REDIS_ENABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "db.override", cfg.Database.Host)
	assert.Equal(t, "from-env", cfg.Auth.Secret)
	assert.Equal(t, 25, cfg.Outbox.BatchSize)
	assert.True(t, cfg.Redis.Enabled)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing explicit file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
		assert.Error(t, err)
	})

	t.Run("unknown storage driver", func(t *testing.T) {
		_, err := Load(writeConfig(t, "auth:\n  secret: x\nstorage:\n  driver: mongo\n"))
		assert.ErrorContains(t, err, "storage driver")
	})

	t.Run("auth without secret", func(t *testing.T) {
		_, err := Load(writeConfig(t, "auth:\n  enabled: true\n"))
		assert.ErrorContains(t, err, "auth.secret")
	})

	t.Run("auth disabled needs no secret", func(t *testing.T) {
		_, err := Load(writeConfig(t, "auth:\n  enabled: false\n"))
		assert.NoError(t, err)
	})
}

func TestConversions(t *testing.T) {
	cfg, err := Load(writeConfig(t, "auth:\n  secret: x\n"))
	require.NoError(t, err)

	wc := cfg.Outbox.ToWorkerConfig()
	assert.Equal(t, cfg.Outbox.BatchSize, wc.BatchSize)
	assert.Equal(t, cfg.Outbox.RetryDelay, wc.RetryDelay)

	bc := cfg.Redis.ToBrokerConfig()
	assert.Equal(t, cfg.Redis.URL, bc.URL)
	assert.Equal(t, cfg.Redis.PoolSize, bc.PoolSize)
}
