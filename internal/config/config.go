package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"MarketLens/internal/model"
	"MarketLens/internal/preparer"
)

// DefaultPath is used when CONFIG_PATH is unset.
const DefaultPath = "configs/config.yaml"

// Config holds all application configuration.
type Config struct {
	Data struct {
		CSVPath     string            `yaml:"csv_path"`
		Tickers     []string          `yaml:"tickers"`
		TickerNames map[string]string `yaml:"ticker_names"`
	} `yaml:"data"`
	Preparer struct {
		Window      int    `yaml:"window"`
		WindowScope string `yaml:"window_scope"`
		ZeroOpen    string `yaml:"zero_open"`
	} `yaml:"preparer"`
	Server struct {
		Port    int  `yaml:"port"`
		DevMode bool `yaml:"dev_mode"`
	} `yaml:"server"`
	Schedule struct {
		RefreshCron  string `yaml:"refresh_cron"`
		HistoryStart string `yaml:"history_start"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies .env and environment
// variable overrides, then defaults.
func Load(path string) (*Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("MARKET_DATA_CSV"); v != "" {
		cfg.Data.CSVPath = v
	}
	if v := os.Getenv("MA_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Preparer.Window = n
		}
	}
	if v := os.Getenv("MA_WINDOW_SCOPE"); v != "" {
		cfg.Preparer.WindowScope = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("DEV_MODE"); v != "" {
		cfg.Server.DevMode = v == "true" || v == "1"
	}
	if v := os.Getenv("CRON_REFRESH"); v != "" {
		cfg.Schedule.RefreshCron = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.Data.CSVPath == "" {
		cfg.Data.CSVPath = "data/MarketData.csv"
	}
	if len(cfg.Data.TickerNames) == 0 {
		cfg.Data.TickerNames = model.DefaultTickerNames()
	}
	if len(cfg.Data.Tickers) == 0 {
		cfg.Data.Tickers = []string{"^NYA", "^IXIC", "^DJI", "^GSPC"}
	}
	if cfg.Preparer.Window == 0 {
		cfg.Preparer.Window = preparer.DefaultWindow
	}
	if cfg.Preparer.WindowScope == "" {
		cfg.Preparer.WindowScope = string(preparer.ScopeTable)
	}
	if cfg.Preparer.ZeroOpen == "" {
		cfg.Preparer.ZeroOpen = string(preparer.ZeroOpenPropagate)
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Schedule.HistoryStart == "" {
		cfg.Schedule.HistoryStart = "2000-01-01"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/marketlens.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return cfg, nil
}

// PreparerOptions converts the preparer section.
func (c *Config) PreparerOptions() preparer.Options {
	return preparer.Options{
		Window:   c.Preparer.Window,
		Scope:    preparer.WindowScope(c.Preparer.WindowScope),
		ZeroOpen: preparer.ZeroOpenPolicy(c.Preparer.ZeroOpen),
		Names:    model.TickerNames(c.Data.TickerNames),
	}
}

// HistoryStart parses schedule.history_start.
func (c *Config) HistoryStart() (time.Time, error) {
	return time.Parse("2006-01-02", c.Schedule.HistoryStart)
}

// TelegramEnabled reports whether both Telegram credentials are set.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Validate checks that all fields are usable.
func (c *Config) Validate() error {
	if c.Data.CSVPath == "" {
		return fmt.Errorf("data.csv_path is required")
	}
	if err := c.PreparerOptions().Validate(); err != nil {
		return fmt.Errorf("preparer: %w", err)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if _, err := c.HistoryStart(); err != nil {
		return fmt.Errorf("schedule.history_start: %w", err)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}
