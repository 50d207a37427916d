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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Provider.RateLimit)
	assert.Equal(t, 30*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, StorageSQLite, cfg.Storage.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Updates.Interval)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.TelegramEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
telegram:
  bot_token: file-token
  chat_id: "100"
provider:
  api_url: https://example.test
  timeout: 5s
storage:
  driver: file
  state_file: /tmp/state.json
redis:
  addr: localhost:6379
  ttl: 2m
log_level: debug
`)
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("PROVIDER_RATE_LIMIT", "5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Telegram.BotToken, "env wins over file")
	assert.Equal(t, "100", cfg.Telegram.ChatID)
	assert.Equal(t, "https://example.test", cfg.Provider.APIURL)
	assert.Equal(t, 5*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, 5, cfg.Provider.RateLimit)
	assert.Equal(t, StorageFile, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/state.json", cfg.Storage.StateFile)
	assert.Equal(t, 2*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.TelegramEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "telegram: [unclosed"))
	assert.ErrorContains(t, err, "parse config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"token without chat", func(c *Config) { c.Telegram.BotToken = "x" }, "must be set together"},
		{"non-numeric chat", func(c *Config) { c.Telegram.BotToken, c.Telegram.ChatID = "x", "abc" }, "must be numeric"},
		{"bad api url", func(c *Config) { c.Provider.APIURL = "not a url" }, "provider.api_url"},
		{"bad driver", func(c *Config) { c.Storage.Driver = "postgres" }, "storage.driver"},
		{"update interval", func(c *Config) { c.Updates.Interval = time.Minute }, "updates.interval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.errMsg)
		})
	}
}
