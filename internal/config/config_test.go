package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	os.Unsetenv("STORE_BACKEND")

	c, err := Parse(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, c.Backend)
	assert.Equal(t, "localhost:6379", c.Redis.Addr)
	assert.Equal(t, "workq:", c.Redis.KeyPrefix)
	assert.Equal(t, time.Minute, c.Sweep.Interval)
	assert.Equal(t, 8080, c.API.Port)
}

func TestParse_Environment(t *testing.T) {
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("REDIS_ADDRESS", "redis:6380")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("SWEEP_INTERVAL", "15s")

	c, err := Parse(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, BackendRedis, c.Backend)
	assert.Equal(t, "redis:6380", c.Redis.Addr)
	assert.Equal(t, 2, c.Redis.DB)
	assert.Equal(t, 15*time.Second, c.Sweep.Interval)
}

func TestParse_DotEnvFile(t *testing.T) {
	os.Unsetenv("API_PORT")
	t.Cleanup(func() { os.Unsetenv("API_PORT") })

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("API_PORT=9191\n"), 0o600))

	c, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, 9191, c.API.Port)
}

func TestParse_Invalid(t *testing.T) {
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "")
	_, err := Parse(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "DATABASE_URL")

	t.Setenv("STORE_BACKEND", "sqlite")
	_, err = Parse(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "sqlite")
}
