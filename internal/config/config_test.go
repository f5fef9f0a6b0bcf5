package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("WEBHOOK_PUBLIC_URL", "https://example.com/telegram/webhook")
	for _, k := range []string{"PORT", "DB_PATH", "UNIVERSE_PATH", "MARKET_SUFFIX", "CALENDAR_MIC", "LOG_LEVEL", "LOG_PRETTY", "OPENAI_API_KEY"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "token", cfg.TelegramToken)
	assert.Equal(t, "9095", cfg.Port)
	assert.Equal(t, ".SA", cfg.MarketSuffix)
	assert.Equal(t, "bvmf", cfg.CalendarMIC)
	assert.Equal(t, "tickers.csv", cfg.UniversePath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogPretty)
	assert.Empty(t, cfg.OpenAIKey)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("WEBHOOK_PUBLIC_URL", "https://example.com")
	t.Setenv("PORT", "8080")
	t.Setenv("MARKET_SUFFIX", "")
	t.Setenv("LOG_PRETTY", "true")
	t.Setenv("BENCHMARKS_PATH", "benchmarks.yaml")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ".SA", cfg.MarketSuffix)
	assert.True(t, cfg.LogPretty)
	assert.Equal(t, "benchmarks.yaml", cfg.BenchmarksPath)
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("WEBHOOK_PUBLIC_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_BOT_TOKEN")
	assert.Contains(t, err.Error(), "WEBHOOK_PUBLIC_URL")
}
