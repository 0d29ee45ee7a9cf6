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
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := writeConfig(t, `
database:
  host: db.local
  port: 3306
  dbname: ielts
`)
	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "db.local", cfg.Database.Host)
	assert.Equal(t, 40, cfg.Scoring.DefaultTotalItems)
	assert.Equal(t, 30*time.Second, cfg.Scoring.LockTTL())
	assert.Equal(t, 10*time.Second, cfg.Scoring.LockWait())
	assert.Equal(t, 10*time.Minute, cfg.Scoring.ResultCacheTTL())
	assert.Equal(t, 4, cfg.Scoring.RematerializeWorkers)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), cfg.ConfigFile)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	dir := writeConfig(t, `
database:
  driver: mysql
scoring:
  rematerialize_workers: 0
`)
	t.Setenv("IELTS_DATABASE_DRIVER", "postgres")
	t.Setenv("IELTS_SERVER_PORT", "9090")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 1, cfg.Scoring.RematerializeWorkers, "non-positive workers fall back to one")
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "database:\n  driver: oracle\n"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "scoring:\n  default_total_items: 0\n"))
	assert.Error(t, err)

	_, err = LoadConfig(t.TempDir())
	assert.Error(t, err, "missing config file")
}
