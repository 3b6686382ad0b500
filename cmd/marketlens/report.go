package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"MarketLens/internal/collector"
	"MarketLens/internal/dashboard"
	"MarketLens/internal/notifier"
	"MarketLens/internal/preparer"
	"MarketLens/internal/recorder"
	"MarketLens/internal/scheduler"
)

func reportCmd() *cobra.Command {
	var (
		year int
		kind string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the direction, volume and summary reports for a year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			svc := newService(cfg, recorder.NewNoopRecorder(), log)

			years, err := svc.Years()
			if err != nil {
				return err
			}
			if year == 0 {
				if len(years) == 0 {
					fmt.Fprint(cmd.OutOrStdout(), notifier.FormatYears(notifier.Plain, years))
					return nil
				}
				year = years[len(years)-1]
			}
			return writeReport(cmd, svc, year, kind)
		},
	}
	cmd.Flags().IntVarP(&year, "year", "y", 0, "Year to report (default: latest)")
	cmd.Flags().StringVarP(&kind, "kind", "k", "all", "Report kind: direction, volume, summary, years or all")
	return cmd
}

func writeReport(cmd *cobra.Command, svc *dashboard.Service, year int, kind string) error {
	out := cmd.OutOrStdout()
	show := func(k string) bool { return kind == "all" || kind == k }
	known := false

	if kind == "years" {
		years, err := svc.Years()
		if err != nil {
			return err
		}
		fmt.Fprint(out, notifier.FormatYears(notifier.Plain, years))
		return nil
	}
	if show("direction") {
		known = true
		counts, err := svc.Direction(year)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, notifier.FormatDirectionReport(notifier.Plain, year, counts, svc.Names()))
	}
	if show("volume") {
		known = true
		vol, err := svc.MonthlyVolume(year)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, notifier.FormatVolumeReport(notifier.Plain, year, vol, svc.Names()))
	}
	if show("summary") {
		known = true
		sum, err := svc.Summary(year)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, notifier.FormatSummaryReport(notifier.Plain, year, sum))
	}
	if !known {
		return fmt.Errorf("unknown report kind %q", kind)
	}
	return nil
}

func refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Download the configured tickers' daily history and rewrite the CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			rec := openRecorder(cfg, log)
			defer rec.Close()
			svc := newService(cfg, rec, log)

			historyStart, err := cfg.HistoryStart()
			if err != nil {
				return fmt.Errorf("schedule.history_start: %w", err)
			}
			col := collector.NewCollector(collector.NewYahooFetcher(cfg.Proxy), cfg.Data.Tickers, log)
			sched := scheduler.NewScheduler(cmd.Context(), col, svc, nil, cfg.Data.CSVPath, historyStart, log)

			n, err := sched.RunRefreshNow(cmd.Context())
			if err != nil {
				return err
			}
			snap, err := svc.Snapshot()
			if err != nil {
				return err
			}
			span, _ := preparer.Span(snap.Rows)
			fmt.Fprint(cmd.OutOrStdout(), notifier.FormatRefresh(notifier.Plain, n, span))
			return nil
		},
	}
}
