package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(databaseDSNEnv, "")

	cfg := Load("")

	assert.Equal(t, 20, cfg.Scraper.DefaultLimit)
	assert.Equal(t, "Marketing", cfg.Scraper.FallbackCategory)
	assert.Equal(t, []string{"marketingtechnews"}, cfg.Scraper.DefaultSources)
	require.Len(t, cfg.Sources, 1)
	assert.Equal(t, "marketingtech", cfg.Sources[0].Scanner)
	assert.Equal(t, ProviderOpenAI, cfg.Enrichment.Provider)
	assert.Equal(t, 1, cfg.Approval.BulkConcurrency)
	assert.Equal(t, "UTC", cfg.Scheduler.Location().String())
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := `
logging:
  level: debug
scraper:
  defaultLimit: 7
  concurrency: 3
  timeout: 5s
sources:
  - name: martech-feed
    scanner: feed
    url: https://example.org/feed
enrichment:
  provider: http
  endpoint: https://enrich.example.org
approval:
  bulkConcurrency: 4
scheduler:
  enabled: true
  interval: 1h
  timezone: Europe/Berlin
notifications:
  telegram:
    chatId: "-100123"
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))
	t.Setenv(databaseDSNEnv, "postgres://override")
	t.Setenv(openAIKeyEnv, "sk-test")

	cfg := Load(path)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 7, cfg.Scraper.DefaultLimit)
	assert.Equal(t, 3, cfg.Scraper.Concurrency)
	assert.Equal(t, 5*time.Second, cfg.Scraper.Timeout)
	assert.Equal(t, "Marketing", cfg.Scraper.FallbackCategory)
	require.Len(t, cfg.Sources, 1)
	assert.Equal(t, "martech-feed", cfg.Sources[0].Name)
	assert.Equal(t, ProviderHTTP, cfg.Enrichment.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Enrichment.Model)
	assert.Equal(t, "sk-test", cfg.Enrichment.APIKey)
	assert.Equal(t, 4, cfg.Approval.BulkConcurrency)
	assert.Equal(t, "postgres://override", cfg.Database.DSN)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, time.Hour, cfg.Scheduler.Interval)
	assert.Equal(t, "Europe/Berlin", cfg.Scheduler.Location().String())

	chatID, ok := cfg.Notifications.Telegram.ChatIDInt()
	assert.True(t, ok)
	assert.Equal(t, int64(-100123), chatID)
}

func TestLoadUnreadableFileFallsBack(t *testing.T) {
	t.Setenv(databaseDSNEnv, "")

	cfg := Load(filepath.Join(t.TempDir(), "missing.yaml"))

	assert.Equal(t, defaultConfig().Database.DSN, cfg.Database.DSN)
}
