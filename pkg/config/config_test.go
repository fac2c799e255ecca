package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"ZHANGBEN_DATA_DIR", "ZHANGBEN_STORAGE_BACKEND", "ZHANGBEN_BACKUP_SCHEDULE",
		"ZHANGBEN_IMPORT_PREDICT", "ZHANGBEN_SEARCH_LIMIT", "ZHANGBEN_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Contains(t, cfg.Storage.DataDir, ".zhangben")
	assert.Equal(t, "json", cfg.Storage.Backend)
	assert.Equal(t, "0 3 * * *", cfg.Backup.Schedule)
	assert.False(t, cfg.Import.PredictCategories)
	assert.Equal(t, 20, cfg.Search.Limit)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ZHANGBEN_DATA_DIR", "/tmp/books")
	t.Setenv("ZHANGBEN_STORAGE_BACKEND", "sqlite")
	t.Setenv("ZHANGBEN_BACKUP_SCHEDULE", "")
	t.Setenv("ZHANGBEN_IMPORT_PREDICT", "true")
	t.Setenv("ZHANGBEN_SEARCH_LIMIT", "5")
	t.Setenv("ZHANGBEN_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/books", cfg.Storage.DataDir)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "/tmp/books/ledger.db", cfg.Storage.LedgerPath())
	assert.True(t, cfg.Import.PredictCategories)
	assert.Equal(t, 5, cfg.Search.Limit)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestSearchLimitRejectsGarbage(t *testing.T) {
	t.Setenv("ZHANGBEN_SEARCH_LIMIT", "plenty")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Search.Limit)
}
