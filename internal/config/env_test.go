package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("GATEWAY", "")
	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", env.AppAddr)
	assert.Equal(t, GatewayMemory, env.Gateway)
	assert.Equal(t, 10*time.Second, env.BackendTimeout)
	assert.Equal(t, 30*time.Minute, env.SessionTTL)
	assert.Equal(t, 1000, env.MaxSessions)
}

func TestMaxSessionsFromEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("GATEWAY", "")
	t.Setenv("MAX_SESSIONS", "25")
	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, 25, env.MaxSessions)

	t.Setenv("MAX_SESSIONS", "0")
	_, err = LoadEnv()
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tableadmin.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app_addr: ":9000"
gateway: rest
backend_url: http://file.example
backend_timeout: 3s
cors_allowed_origins: ["http://a.example"]
`), 0o644))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("BACKEND_URL", "http://env.example")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://b.example, http://c.example")

	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9000", env.AppAddr)
	assert.Equal(t, GatewayREST, env.Gateway)
	assert.Equal(t, "http://env.example", env.BackendURL)
	assert.Equal(t, 3*time.Second, env.BackendTimeout)
	assert.Equal(t, []string{"http://b.example", "http://c.example"}, env.CORSOrigins)
}

func TestLoadEnvValidation(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("GATEWAY", "mysql")
	t.Setenv("MYSQL_DSN", "")
	_, err := LoadEnv()
	assert.ErrorContains(t, err, "MYSQL_DSN")

	t.Setenv("GATEWAY", "carrier-pigeon")
	_, err = LoadEnv()
	assert.ErrorContains(t, err, "unknown GATEWAY")
}

func TestLoadEnvBadDuration(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("SESSION_TTL", "forever")
	_, err := LoadEnv()
	assert.ErrorContains(t, err, "SESSION_TTL")
}

func TestConnectRedisDisabledWhenUnset(t *testing.T) {
	client, err := ConnectRedis("")
	require.NoError(t, err)
	assert.Nil(t, client)
}
