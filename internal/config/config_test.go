package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendFile, cfg.StoreBackend)
	assert.Equal(t, "var", cfg.QuotesDir)
	assert.Equal(t, "quoteboard.db", cfg.DBPath)
	assert.Equal(t, 100, cfg.MaxRooms)
	assert.Equal(t, "quotebot", cfg.BotName)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogPretty)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("QUOTES_DIR", "/tmp/quotes")
	t.Setenv("DB_PATH", "/tmp/test.db")
	t.Setenv("MAX_ROOMS", "50")
	t.Setenv("BOT_NAME", "q")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_PRETTY", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, BackendSQLite, cfg.StoreBackend)
	assert.Equal(t, "/tmp/quotes", cfg.QuotesDir)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, 50, cfg.MaxRooms)
	assert.Equal(t, "q", cfg.BotName)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.LogPretty)
}

func TestLoadInvalidInt(t *testing.T) {
	t.Setenv("MAX_ROOMS", "notanumber")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.MaxRooms)
}

func TestLoadUnknownBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "redis")

	_, err := Load()
	assert.Error(t, err)
}
