package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
app:
  http:
    port: 9090
db:
  driver: sqlite
  dsn: file:a.db
  automigrate: true
admin:
  username: root
  password_hash: "$2a$10$abc"
redis:
  addr: 127.0.0.1:6379
limits:
  per_ip_rps: 5
  per_ip_burst: 10
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))
	return path
}

func TestReadFileAndDefaults(t *testing.T) {
	c, err := Read(writeConfig(t))
	require.NoError(t, err)

	assert.Equal(t, 9090, c.App.HTTP.Port)
	assert.Equal(t, 8081, c.App.Admin.Port)
	assert.Equal(t, "gin-gorm-querydsl", c.App.Name)
	assert.Equal(t, "sqlite", c.DB.Driver)
	assert.True(t, c.DB.AutoMigrate)
	assert.Equal(t, "root", c.Admin.Username)
	assert.Equal(t, "$2a$10$abc", c.Admin.PasswordHash)
	assert.Equal(t, "127.0.0.1:6379", c.Redis.Addr)
	assert.Equal(t, 60, c.Redis.TTLSec)
	assert.InDelta(t, 5.0, c.Limits.PerIPRPS, 0.0001)
	assert.Equal(t, 10, c.Limits.PerIPBurst)
	assert.Equal(t, int64(300), c.Limits.Concurrency)
	assert.Equal(t, 120, c.JWT.AccessTokenTTLMin)
}

func TestReadEnvOverride(t *testing.T) {
	t.Setenv("APP_DB_DSN", "file:override.db")
	c, err := Read(writeConfig(t))
	require.NoError(t, err)
	assert.Equal(t, "file:override.db", c.DB.DSN)
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
