package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketLens/internal/preparer"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"MARKET_DATA_CSV", "MA_WINDOW", "MA_WINDOW_SCOPE", "PORT", "DEV_MODE", "CRON_REFRESH",
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "SQLITE_PATH", "LOG_LEVEL", "HTTPS_PROXY",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "data/MarketData.csv", cfg.Data.CSVPath)
	assert.Equal(t, []string{"^NYA", "^IXIC", "^DJI", "^GSPC"}, cfg.Data.Tickers)
	assert.Equal(t, "S&P 500", cfg.Data.TickerNames["^GSPC"])
	assert.Equal(t, 5, cfg.Preparer.Window)
	assert.Equal(t, "table", cfg.Preparer.WindowScope)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.TelegramEnabled())
	assert.NoError(t, cfg.Validate())

	opts := cfg.PreparerOptions()
	assert.Equal(t, preparer.ScopeTable, opts.Scope)
	assert.Equal(t, preparer.ZeroOpenPropagate, opts.ZeroOpen)
}

func TestLoad_YAMLAndEnvOverride(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
data:
  csv_path: /srv/MarketData.csv
  ticker_names:
    "^NYA": New York Stock Exchange
    "^IXIC": Nasdaq Stock Market
preparer:
  window: 10
  window_scope: ticker
server:
  port: 9000
schedule:
  refresh_cron: "0 0 23 * * 1-5"
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
	t.Setenv("PORT", "9100")
	t.Setenv("MA_WINDOW", "7")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/MarketData.csv", cfg.Data.CSVPath)
	assert.Equal(t, "New York Stock Exchange", cfg.PreparerOptions().Names.Lookup("^NYA"))
	assert.Equal(t, "^DJI", cfg.PreparerOptions().Names.Lookup("^DJI"))
	assert.Equal(t, 7, cfg.Preparer.Window)
	assert.Equal(t, "ticker", cfg.Preparer.WindowScope)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "0 0 23 * * 1-5", cfg.Schedule.RefreshCron)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	bad := *cfg
	bad.Preparer.WindowScope = "weekly"
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Server.Port = 70000
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Schedule.HistoryStart = "yesterday"
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Telegram.BotToken = "token"
	assert.Error(t, bad.Validate())

	bad.Telegram.ChatID = "42"
	assert.NoError(t, bad.Validate())
	assert.True(t, bad.TelegramEnabled())
}
