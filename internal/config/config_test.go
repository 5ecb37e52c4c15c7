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
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  base_url: "https://plant.example.com/api"
  auth_kind: "basic"
  username: "operator"
  password: "secret"

feed:
  mode: "poll"
  poll_interval: 5s
  reconnect_base: 500ms
  max_reconnect_attempts: 3

logging:
  level: "debug"
  format: "json"
`)

	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://plant.example.com/api", config.Server.BaseURL)
	assert.Equal(t, "basic", config.Server.AuthKind)
	assert.Equal(t, "operator", config.Server.Username)

	assert.Equal(t, "poll", config.Feed.Mode)
	assert.Equal(t, 5*time.Second, config.Feed.PollInterval)
	assert.Equal(t, 500*time.Millisecond, config.Feed.ReconnectBase)
	assert.Equal(t, 3, config.Feed.MaxReconnectAttempts)

	assert.Equal(t, "debug", config.Logging.Level)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  base_url: "https://plant.example.com/api"
`)

	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "stream", config.Feed.Mode)
	assert.Equal(t, 2*time.Second, config.Feed.PollInterval)
	assert.Equal(t, time.Second, config.Feed.ReconnectBase)
	assert.Equal(t, 5, config.Feed.MaxReconnectAttempts)
	assert.False(t, config.Archive.Enabled)
	assert.Equal(t, 9180, config.Metrics.Port)
	assert.Equal(t, "info", config.Logging.Level)
}

func TestLoadWithEnvExpansion(t *testing.T) {
	t.Setenv("I3X_TOKEN", "tok-from-env")
	t.Setenv("I3X_BASE_URL", "https://edge.example.com/api")

	path := writeConfig(t, `
server:
  base_url: $I3X_BASE_URL
  auth_kind: "bearer"
  token: $I3X_TOKEN
`)

	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://edge.example.com/api", config.Server.BaseURL)
	assert.Equal(t, "tok-from-env", config.Server.Token)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestArchiveConnString(t *testing.T) {
	a := ArchiveConfig{
		Host: "localhost", Port: 5432, Name: "trends",
		User: "explorer", Password: "pw", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=explorer password=pw dbname=trends sslmode=disable",
		a.ConnString())
}
