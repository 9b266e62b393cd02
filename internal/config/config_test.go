package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledgerline.yaml")

	cfg := Default(dir)
	cfg.Storage.Driver = "postgres"
	cfg.Storage.DSN = "postgres://localhost/ledgerline"
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", loaded.Server.Addr)
	assert.Equal(t, ":9090", loaded.Server.MetricsAddr)
	assert.Equal(t, "postgres", loaded.Storage.Driver)
	assert.Equal(t, "postgres://localhost/ledgerline", loaded.Storage.DSN)
	assert.Equal(t, dir, loaded.Data.Dir)
	assert.Equal(t, 30, loaded.Cache.TTLSeconds)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledgerline.yaml")
	require.NoError(t, Save(path, Default(dir)))

	t.Setenv("LEDGERLINE_ADDR", ":9999")
	t.Setenv("LEDGERLINE_DB_DRIVER", "postgres")
	t.Setenv("LEDGERLINE_REDIS_ADDR", "localhost:6379")
	t.Setenv("LEDGERLINE_REDIS_DB", "3")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "localhost:6379", cfg.Cache.Addr)
	assert.Equal(t, 3, cfg.Cache.DB)
}
