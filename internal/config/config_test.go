package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fabriziosalmi/nexus-taskqueue/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {

	t.Run("Defaults", func(t *testing.T) {
		cfg, err := config.Load("")
		require.NoError(t, err)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
		assert.Equal(t, 4, cfg.Queue.MaxWorkers)
		assert.Equal(t, 100*time.Millisecond, cfg.Queue.RetryDelay)
		assert.Equal(t, 5*time.Minute, cfg.Queue.SweepInterval)
		assert.Equal(t, 24*time.Hour, cfg.Queue.Retention)
		assert.Equal(t, "safe_files/task_storage.json", cfg.Storage.Path)
		assert.Equal(t, "info", cfg.Log.Level)
	})

	t.Run("EnvironmentOverrides", func(t *testing.T) {
		t.Setenv("NEXUS_TASKQUEUE_SERVER_PORT", "9999")
		t.Setenv("NEXUS_TASKQUEUE_QUEUE_MAX_WORKERS", "8")
		t.Setenv("NEXUS_TASKQUEUE_STORAGE_PATH", "/tmp/elsewhere.json")
		t.Setenv("NEXUS_TASKQUEUE_LOG_LEVEL", "debug")

		cfg, err := config.Load("")
		require.NoError(t, err)
		assert.Equal(t, 9999, cfg.Server.Port)
		assert.Equal(t, 8, cfg.Queue.MaxWorkers)
		assert.Equal(t, "/tmp/elsewhere.json", cfg.Storage.Path)
		assert.Equal(t, "debug", cfg.Log.Level)
	})

	t.Run("ConfigFileOverridesDefaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := "server:\n  port: 8180\nqueue:\n  retry_delay: 250ms\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		cfg, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, 8180, cfg.Server.Port)
		assert.Equal(t, 250*time.Millisecond, cfg.Queue.RetryDelay)
		assert.Equal(t, 4, cfg.Queue.MaxWorkers, "untouched keys keep their defaults")
	})

	t.Run("MissingConfigFile", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})

	t.Run("RejectsUnknownLogLevel", func(t *testing.T) {
		t.Setenv("NEXUS_TASKQUEUE_LOG_LEVEL", "verbose")
		_, err := config.Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})

	t.Run("RejectsOutOfRangeWorkers", func(t *testing.T) {
		t.Setenv("NEXUS_TASKQUEUE_QUEUE_MAX_WORKERS", "200")
		_, err := config.Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})
}
