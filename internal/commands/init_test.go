package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline-dev/ledgerline/internal/chart"
	"github.com/ledgerline-dev/ledgerline/internal/config"
	"github.com/ledgerline-dev/ledgerline/internal/currency"
)

func TestRunInit(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, runInit(dir))

	for _, f := range []string{
		"ledgerline.yaml",
		"currencies.csv",
		filepath.Join("accounts", "chart-of-accounts.csv"),
		filepath.Join("accounts", "groups.csv"),
	} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, f)
	}

	cfg, err := config.Load(filepath.Join(dir, "ledgerline.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, dir, cfg.Data.Dir)

	ch, err := chart.Load(dir)
	require.NoError(t, err)
	assert.Len(t, ch.All(), len(chart.DefaultChart()))

	cur, err := currency.Load(dir)
	require.NoError(t, err)
	local, ok := cur.Local()
	require.True(t, ok)
	assert.Equal(t, "SYP", local.Code)
}

func TestLoadDataFallsBackToDefaults(t *testing.T) {
	ch, cur, err := loadData(filepath.Join(t.TempDir(), "uninitialized"))
	require.NoError(t, err)
	assert.Len(t, ch.All(), len(chart.DefaultChart()))
	assert.True(t, cur.Exists(1))
}
