// marketlens prepares daily stock index prices for charting and serves them
// over HTTP and Telegram.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"MarketLens/internal/config"
	"MarketLens/internal/dashboard"
	"MarketLens/internal/logger"
	"MarketLens/internal/recorder"
)

var (
	configPath string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "marketlens",
		Short: "Stock index market data preparer",
		Long: `marketlens loads a CSV of daily index prices, derives price changes,
directions and moving averages, and serves the groupings behind each chart.`,
		SilenceUsage: true,
	}

	defaultConfig := config.DefaultPath
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultConfig = v
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfig, "Path to config.yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(refreshCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads and validates config and builds the process logger.
func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("config validation: %w", err)
	}
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	log := logger.New(logger.Config{Level: level, Pretty: cfg.Log.Pretty})
	logger.SetGlobalLogger(log)
	return cfg, log, nil
}

// openRecorder falls back to a no-op recorder when SQLite is unavailable.
func openRecorder(cfg *config.Config, log zerolog.Logger) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
	if err != nil {
		log.Warn().Err(err).Msg("Init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	return sr
}

func newService(cfg *config.Config, rec recorder.Recorder, log zerolog.Logger) *dashboard.Service {
	return dashboard.NewService(cfg.Data.CSVPath, cfg.PreparerOptions(), rec, log)
}
