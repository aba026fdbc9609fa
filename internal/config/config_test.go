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
	t.Setenv(ConfigPathEnvVar, "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, "none", cfg.Server.MCPTransport)
	assert.Equal(t, "file:./taxonomy.db", cfg.Store.URL)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  http_addr: ":9090"
  mcp_transport: stdio
store:
  url: "libsql://taxonomy.example.io"
logging:
  level: debug
`), 0o600))
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.HTTPAddr)
	assert.Equal(t, "stdio", cfg.Server.MCPTransport)
	assert.Equal(t, "libsql://taxonomy.example.io", cfg.Store.URL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched sections keep their defaults.
	assert.Equal(t, "./index/occupations.scvx", cfg.Index.VectorPath)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  http_addr: \":9090\"\n"), 0o600))
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("SERVER_HTTP_ADDR", ":7070")
	t.Setenv("CACHE_REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.HTTPAddr)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("LOGGING_LEVEL", "shouty")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestEnvTransform(t *testing.T) {
	assert.Equal(t, "server.http_addr", envTransform("SERVER_HTTP_ADDR"))
	assert.Equal(t, "store.auth_token", envTransform("STORE_AUTH_TOKEN"))
	assert.Equal(t, "", envTransform("PATH"))
	assert.Equal(t, "", envTransform("OPENAI_API_KEY"))
	assert.Equal(t, "", envTransform("SERVER_"))
}
