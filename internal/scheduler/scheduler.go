package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"MarketLens/internal/collector"
	"MarketLens/internal/dashboard"
	"MarketLens/internal/loader"
	"MarketLens/internal/notifier"
	"MarketLens/internal/preparer"
)

// Messenger delivers formatted reports. *notifier.TelegramNotifier satisfies it.
type Messenger interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler refreshes the market CSV on a cron schedule and answers chat
// commands against the dashboard service.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Service   *dashboard.Service
	Notifier  Messenger // optional
	Ctx       context.Context

	csvPath      string
	historyStart time.Time
	now          func() time.Time
	mu           sync.Mutex // serializes refreshes
	log          zerolog.Logger
}

// NewScheduler creates a new Scheduler. tn may be nil.
func NewScheduler(ctx context.Context, col *collector.Collector, svc *dashboard.Service, tn Messenger,
	csvPath string, historyStart time.Time, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		Cron:         cron.New(cron.WithSeconds()),
		Collector:    col,
		Service:      svc,
		Notifier:     tn,
		Ctx:          ctx,
		csvPath:      csvPath,
		historyStart: historyStart,
		now:          time.Now,
		log:          log.With().Str("component", "scheduler").Logger(),
	}
}

// Register schedules the refresh task. An empty expression disables it.
func (s *Scheduler) Register(refreshCron string) error {
	if refreshCron == "" {
		s.log.Info().Msg("Refresh schedule disabled")
		return nil
	}
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	s.log.Info().Str("cron", refreshCron).Msg("Refresh task registered")
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Msg("Scheduler started")
}

// Stop stops the cron scheduler and waits for a running task.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("Scheduler stopped")
}

// RunRefreshNow fetches fresh history, rewrites the CSV and reloads the
// dashboard table. It returns the number of rows written.
func (s *Scheduler) RunRefreshNow(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.Collector.Collect(ctx, s.historyStart, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("collect: %w", err)
	}
	if len(rows) == 0 {
		return 0, errors.New("collect: no rows returned")
	}
	// Rows that cannot be prepared must not replace a working table.
	if _, err := preparer.Prepare(rows, s.Service.Options()); err != nil {
		return 0, fmt.Errorf("prepare fetched rows: %w", err)
	}
	if err := loader.WriteFile(s.csvPath, rows); err != nil {
		return 0, err
	}
	if _, err := s.Service.Reload(); err != nil {
		return 0, fmt.Errorf("reload: %w", err)
	}
	s.log.Info().Int("rows", len(rows)).Str("path", s.csvPath).Msg("Market data refreshed")
	return len(rows), nil
}

func (s *Scheduler) refreshTask() {
	s.log.Info().Msg("Running refresh task")
	n, err := s.RunRefreshNow(s.Ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Refresh failed")
		s.trySend(fmt.Sprintf("Market data refresh failed: %s", notifier.HTML.Escape(err.Error())))
		return
	}

	snap, err := s.Service.Snapshot()
	if err != nil {
		s.log.Error().Err(err).Msg("Read refreshed table")
		return
	}
	span, _ := preparer.Span(snap.Rows)
	report := notifier.FormatRefresh(notifier.HTML, n, span)
	if years := preparer.Years(snap.Rows); len(years) > 0 {
		latest := years[len(years)-1]
		report += "\n" + notifier.FormatDirectionReport(notifier.HTML, latest,
			preparer.GroupByYearAndDirection(snap.Rows, latest), s.Service.Names())
	}
	s.trySend(report)
}

const helpText = "Available commands:\n" +
	"/years - list years with data\n" +
	"/year YYYY - loss and profit days per ticker\n" +
	"/volume YYYY - monthly volume per ticker\n" +
	"/summary YYYY - daily % change statistics\n" +
	"/refresh - fetch the latest history"

// HandleCommand processes a user command and returns an HTML reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	// Telegram appends @botname to commands in group chats.
	cmd, _, _ := strings.Cut(fields[0], "@")

	switch cmd {
	case "/years":
		years, err := s.Service.Years()
		if err != nil {
			return s.failure(err)
		}
		return notifier.FormatYears(notifier.HTML, years)
	case "/year", "/volume", "/summary":
		if len(fields) != 2 {
			return fmt.Sprintf("Usage: %s YYYY", cmd)
		}
		year, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Sprintf("Invalid year %q", fields[1])
		}
		return s.yearReport(cmd, year)
	case "/refresh":
		go s.refreshTask()
		return "Refresh started."
	default:
		return helpText
	}
}

func (s *Scheduler) yearReport(cmd string, year int) string {
	switch cmd {
	case "/volume":
		vol, err := s.Service.MonthlyVolume(year)
		if err != nil {
			return s.failure(err)
		}
		return notifier.FormatVolumeReport(notifier.HTML, year, vol, s.Service.Names())
	case "/summary":
		sum, err := s.Service.Summary(year)
		if err != nil {
			return s.failure(err)
		}
		return notifier.FormatSummaryReport(notifier.HTML, year, sum)
	default:
		counts, err := s.Service.Direction(year)
		if err != nil {
			return s.failure(err)
		}
		return notifier.FormatDirectionReport(notifier.HTML, year, counts, s.Service.Names())
	}
}

func (s *Scheduler) failure(err error) string {
	s.log.Error().Err(err).Msg("Command failed")
	return "Market data is unavailable: " + notifier.HTML.Escape(err.Error())
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.log.Error().Err(err).Msg("Failed to send notification")
	}
}
