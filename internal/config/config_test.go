package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// t.Setenv with "" leaves the variable present but empty, which the
	// getters treat as unset.
	for _, k := range []string{
		"CACHE_FILE_PATH", "CACHE_TTL_SECONDS", "CACHE_SAVE_INTERVAL", "DUPLICATE_THRESHOLD",
		"SUMMARY_SENTENCES", "FEEDS_CONFIG_PATH", "DEBUG", "ENABLE_HTTP_MONITORING", "MONITORING_PORT",
	} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "cache/persistent-cache.json", cfg.CacheFilePath)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, time.Minute, cfg.CacheSaveInterval)
	assert.Equal(t, 0.6, cfg.DuplicateThreshold)
	assert.Equal(t, 3, cfg.SummarySentences)
	assert.Equal(t, "configs/feeds.yaml", cfg.FeedsConfigPath)
	assert.Equal(t, "8080", cfg.MonitoringPort)
	assert.False(t, cfg.Debug)
	assert.False(t, cfg.EnableHTTPMonitoring)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CACHE_TTL_SECONDS", "60")
	t.Setenv("CACHE_SWEEP_INTERVAL", "30s")
	t.Setenv("DUPLICATE_THRESHOLD", "0.75")
	t.Setenv("KEYWORD_COUNT", "8")
	t.Setenv("DEBUG", "true")
	t.Setenv("FETCH_RATE_PER_SEC", "0.5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Equal(t, 30*time.Second, cfg.CacheSweepInterval)
	assert.Equal(t, 0.75, cfg.DuplicateThreshold)
	assert.Equal(t, 8, cfg.KeywordCount)
	assert.Equal(t, 0.5, cfg.FetchRatePerSec)
	assert.True(t, cfg.Debug)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("SUMMARY_SENTENCES", "many")
	t.Setenv("REQUEST_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.SummarySentences)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
}

func TestValidate(t *testing.T) {
	t.Setenv("DUPLICATE_THRESHOLD", "1.5")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("DUPLICATE_THRESHOLD", "0.5")
	t.Setenv("SUMMARY_SENTENCES", "0")
	_, err = Load()
	assert.Error(t, err)
}
