package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, 50, cfg.API.HistoryLimit)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
api:
  base_url: "http://example.test/api/"
  timeout: 5s
storage:
  backend: "redis"
  redis:
    addr: "redis:6379"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("NEWSCHAT_STORAGE_NAMESPACE", "tenant-a")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://example.test/api", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, "redis", cfg.Storage.Backend)
	assert.Equal(t, "redis:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, "tenant-a", cfg.Storage.Namespace)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
