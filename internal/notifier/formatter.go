package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"MarketLens/internal/model"
)

// Style selects the markup of formatted reports.
type Style int

const (
	// Plain is for terminals.
	Plain Style = iota
	// HTML is Telegram's HTML parse mode.
	HTML
)

func (s Style) bold(text string) string {
	if s == HTML {
		return "<b>" + html.EscapeString(text) + "</b>"
	}
	return text
}

// Escape escapes text for the style's markup.
func (s Style) Escape(text string) string { return s.text(text) }

func (s Style) text(text string) string {
	if s == HTML {
		return html.EscapeString(text)
	}
	return text
}

func sortedTickers[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for t := range m {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// FormatDirectionReport lists loss and profit days per ticker for year.
func FormatDirectionReport(style Style, year int, counts map[string]model.DirectionCount, names model.TickerNames) string {
	var b strings.Builder
	b.WriteString(style.bold(fmt.Sprintf("Losses and profits per day by ticker (%d)", year)))
	b.WriteString("\n\n")
	if len(counts) == 0 {
		b.WriteString(fmt.Sprintf("No trading days recorded for %d.\n", year))
		return b.String()
	}
	for _, t := range sortedTickers(counts) {
		c := counts[t]
		b.WriteString(style.text(fmt.Sprintf("%-10s loss %4d | profit %4d\n", names.Lookup(t), c.Loss, c.Profit)))
	}
	return b.String()
}

// FormatVolumeReport lists traded volume per month for each ticker in year.
func FormatVolumeReport(style Style, year int, volume map[model.MonthTicker]float64, names model.TickerNames) string {
	byTicker := make(map[string][]model.MonthTicker)
	for k := range volume {
		byTicker[k.Ticker] = append(byTicker[k.Ticker], k)
	}

	var b strings.Builder
	b.WriteString(style.bold(fmt.Sprintf("Monthly volume by ticker (%d)", year)))
	b.WriteString("\n")
	if len(byTicker) == 0 {
		b.WriteString(fmt.Sprintf("\nNo trading days recorded for %d.\n", year))
		return b.String()
	}
	for _, t := range sortedTickers(byTicker) {
		keys := byTicker[t]
		sort.Slice(keys, func(i, j int) bool { return keys[i].Month < keys[j].Month })
		b.WriteString("\n")
		b.WriteString(style.bold(names.Lookup(t)))
		b.WriteString("\n")
		for _, k := range keys {
			month := time.Month(k.Month).String()[:3]
			b.WriteString(fmt.Sprintf("  %s %s\n", month, humanize.SIWithDigits(volume[k], 2, "")))
		}
	}
	return b.String()
}

// FormatSummaryReport lists per-ticker percentage change statistics.
func FormatSummaryReport(style Style, year int, summary []model.YearSummary) string {
	var b strings.Builder
	b.WriteString(style.bold(fmt.Sprintf("Daily %% change summary (%d)", year)))
	b.WriteString("\n\n")
	if len(summary) == 0 {
		b.WriteString(fmt.Sprintf("No trading days recorded for %d.\n", year))
		return b.String()
	}
	for _, s := range summary {
		b.WriteString(style.text(fmt.Sprintf("%-10s days %3d | up %3d | mean %+.3f%% | sd %.3f%%\n",
			s.Name, s.TradingDays, s.ProfitDays, s.MeanPct, s.StdDevPct)))
	}
	return b.String()
}

// FormatYears lists the selectable years.
func FormatYears(style Style, years []int) string {
	if len(years) == 0 {
		return "No data loaded.\n"
	}
	parts := make([]string, len(years))
	for i, y := range years {
		parts[i] = fmt.Sprint(y)
	}
	return style.bold("Available years") + "\n" + strings.Join(parts, ", ") + "\n"
}

// FormatRefresh reports a completed data refresh.
func FormatRefresh(style Style, rows int, span model.Span) string {
	var b strings.Builder
	b.WriteString(style.bold("Market data refreshed"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Rows: %s\n", humanize.Comma(int64(rows))))
	if !span.First.IsZero() {
		b.WriteString(fmt.Sprintf("Range: %s to %s\n", span.First.Format("2006-01-02"), span.Last.Format("2006-01-02")))
		b.WriteString(fmt.Sprintf("Adj Close: %.2f to %.2f\n", span.Low, span.High))
	}
	return b.String()
}
