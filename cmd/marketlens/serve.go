package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"MarketLens/internal/collector"
	"MarketLens/internal/notifier"
	"MarketLens/internal/scheduler"
	"MarketLens/internal/server"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the chart API, run the refresh schedule and answer Telegram commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			log.Info().Str("csv", cfg.Data.CSVPath).Msg("MarketLens starting")

			rec := openRecorder(cfg, log)
			defer rec.Close()
			svc := newService(cfg, rec, log)

			// A missing CSV is not fatal; a refresh may create it.
			if snap, err := svc.Snapshot(); err != nil {
				log.Warn().Err(err).Msg("Initial load failed")
			} else {
				log.Info().Int("rows", len(snap.Rows)).Msg("Market data loaded")
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			var tn *notifier.TelegramNotifier
			var messenger scheduler.Messenger
			if cfg.TelegramEnabled() {
				tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
				messenger = tn
			}

			historyStart, err := cfg.HistoryStart()
			if err != nil {
				return fmt.Errorf("schedule.history_start: %w", err)
			}
			fetcher := collector.NewYahooFetcher(cfg.Proxy)
			col := collector.NewCollector(fetcher, cfg.Data.Tickers, log)
			sched := scheduler.NewScheduler(ctx, col, svc, messenger, cfg.Data.CSVPath, historyStart, log)
			if err := sched.Register(cfg.Schedule.RefreshCron); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()

			if tn != nil {
				go tn.StartPolling(ctx, sched.HandleCommand)
				log.Info().Msg("Telegram polling started")
			}

			if os.Getenv("REFRESH_ON_START") == "true" {
				log.Info().Msg("REFRESH_ON_START enabled, refreshing now")
				go func() {
					if _, err := sched.RunRefreshNow(ctx); err != nil {
						log.Error().Err(err).Msg("Startup refresh failed")
					}
				}()
			}

			srv := server.New(server.Config{
				Log:     log,
				Service: svc,
				Port:    cfg.Server.Port,
				DevMode: cfg.Server.DevMode,
			})
			errCh := make(chan error, 1)
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			select {
			case <-sigCh:
				log.Info().Msg("Shutdown signal received, stopping")
			case err := <-errCh:
				log.Error().Err(err).Msg("HTTP server failed")
				cancel()
				return err
			}

			cancel()
			shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
			defer done()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("HTTP server shutdown")
			}
			log.Info().Msg("MarketLens stopped")
			return nil
		},
	}
}
