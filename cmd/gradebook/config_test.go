package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cache "github.com/Bruce-the-dev/Student-Grade-Management-Lab-3"
	"github.com/Bruce-the-dev/Student-Grade-Management-Lab-3/audit"
	"github.com/Bruce-the-dev/Student-Grade-Management-Lab-3/eviction"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("gradebook", nil)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "records", cfg.RecordsCache.Name)
	assert.Equal(t, cache.DefaultCapacity, cfg.RecordsCache.Capacity)
	assert.Equal(t, eviction.Scan, cfg.StatisticsCache.Eviction)
	assert.Equal(t, int64(audit.DefaultMaxFileBytes), cfg.Audit.MaxFileBytes)
	assert.Equal(t, audit.DefaultHistorySize, cfg.Audit.HistorySize)
	assert.Equal(t, 30*time.Second, cfg.StatisticsRefresh)
}

func TestLoadConfigFileThenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gradebook.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
statistics_refresh: 1m
records_cache:
  capacity: 20
  eviction: lru
audit:
  dir: /var/log/gradebook
  history_size: 50
`), 0o644))

	cfg, err := loadConfig("gradebook", []string{
		"-records-cache.capacity=30",
		"-config.file", path,
		"-audit.history-size", "75",
	})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, time.Minute, cfg.StatisticsRefresh)
	assert.Equal(t, 30, cfg.RecordsCache.Capacity, "flag wins over file")
	assert.Equal(t, eviction.PolicyType("lru"), cfg.RecordsCache.Eviction)
	assert.Equal(t, "/var/log/gradebook", cfg.Audit.Dir)
	assert.Equal(t, 75, cfg.Audit.HistorySize)
	assert.Equal(t, cache.DefaultCapacity, cfg.StatisticsCache.Capacity)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	_, err := loadConfig("gradebook", []string{"-log.level", "loud"})
	require.Error(t, err)

	_, err = loadConfig("gradebook", []string{"-records-cache.eviction", "random"})
	require.ErrorIs(t, err, eviction.ErrUnknownPolicy)

	_, err = loadConfig("gradebook", []string{"-config.file", filepath.Join(t.TempDir(), "missing.yaml")})
	require.Error(t, err)
}
