// Package preparer derives the per-row statistics and groupings shown on the
// dashboard from the raw daily price table. Every function here is pure.
package preparer

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"MarketLens/internal/calculator"
	"MarketLens/internal/model"
)

// WindowScope selects which rows share a moving-average window.
type WindowScope string

const (
	// ScopeTable windows over the whole table in the order given, so
	// interleaved tickers mix inside one window.
	ScopeTable WindowScope = "table"
	// ScopeTicker windows within each ticker, ordered by date.
	ScopeTicker WindowScope = "ticker"
)

// ZeroOpenPolicy decides what happens to the percentage change when Open is 0.
type ZeroOpenPolicy string

const (
	ZeroOpenPropagate ZeroOpenPolicy = "propagate"
	ZeroOpenError     ZeroOpenPolicy = "error"
)

// DefaultWindow is the moving-average length used by the dashboard.
const DefaultWindow = 5

var (
	ErrBadDate  = errors.New("unparseable date")
	ErrZeroOpen = errors.New("open price is zero")
	ErrNoRows   = errors.New("no rows")
)

// dateLayouts are tried in order; time of day is discarded.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
}

// Options controls Prepare.
type Options struct {
	Window   int
	Scope    WindowScope
	ZeroOpen ZeroOpenPolicy
	Names    model.TickerNames
}

// DefaultOptions is a five-row table-wide window with the built-in ticker names.
func DefaultOptions() Options {
	return Options{
		Window:   DefaultWindow,
		Scope:    ScopeTable,
		ZeroOpen: ZeroOpenPropagate,
		Names:    model.DefaultTickerNames(),
	}
}

// Validate checks o for unusable values.
func (o Options) Validate() error {
	if o.Window < 1 {
		return fmt.Errorf("moving average window must be positive, got %d", o.Window)
	}
	switch o.Scope {
	case ScopeTable, ScopeTicker:
	default:
		return fmt.Errorf("unknown window scope %q", o.Scope)
	}
	switch o.ZeroOpen {
	case ZeroOpenPropagate, ZeroOpenError:
	default:
		return fmt.Errorf("unknown zero-open policy %q", o.ZeroOpen)
	}
	return nil
}

// ParseDate parses s as a calendar date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, s)
}

// Prepare returns one enriched row per input row, in input order.
func Prepare(rows []model.RawRow, opts Options) ([]model.EnrichedRow, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	out := make([]model.EnrichedRow, len(rows))
	for i, r := range rows {
		date, err := ParseDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if r.Open == 0 && opts.ZeroOpen == ZeroOpenError {
			return nil, fmt.Errorf("row %d (%s %s): %w", i, r.Ticker, r.Date, ErrZeroOpen)
		}

		change := r.AdjClose - r.Open
		pct := (r.Close - r.Open) / r.Open * 100

		out[i] = model.EnrichedRow{
			Date:     date,
			Ticker:   r.Ticker,
			Open:     r.Open,
			High:     r.High,
			Low:      r.Low,
			Close:    r.Close,
			AdjClose: r.AdjClose,
			Volume:   r.Volume,

			PriceChange:                    change,
			PriceChangeDirection:           direction(change),
			PricePercentageChange:          pct,
			PricePercentageChangeDirection: direction(pct),

			Year:       date.Year(),
			Month:      int(date.Month()),
			MonthName:  date.Month().String(),
			TickerName: opts.Names.Lookup(r.Ticker),
		}
	}

	if err := applyMovingAverage(out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// direction is 1 for strictly positive values; zero, negatives and NaN are 0.
func direction(v float64) int {
	if v > 0 {
		return 1
	}
	return 0
}

func applyMovingAverage(rows []model.EnrichedRow, opts Options) error {
	if opts.Scope == ScopeTable {
		return fillWindow(rows, allIndices(len(rows)), opts.Window)
	}

	groups := make(map[string][]int)
	var order []string
	for i, r := range rows {
		if _, ok := groups[r.Ticker]; !ok {
			order = append(order, r.Ticker)
		}
		groups[r.Ticker] = append(groups[r.Ticker], i)
	}
	for _, ticker := range order {
		idx := groups[ticker]
		sort.SliceStable(idx, func(a, b int) bool {
			return rows[idx[a]].Date.Before(rows[idx[b]].Date)
		})
		if err := fillWindow(rows, idx, opts.Window); err != nil {
			return fmt.Errorf("ticker %s: %w", ticker, err)
		}
	}
	return nil
}

// fillWindow computes the moving average over rows[idx[0]], rows[idx[1]], ...
func fillWindow(rows []model.EnrichedRow, idx []int, window int) error {
	closes := make([]float64, len(idx))
	for k, i := range idx {
		closes[k] = rows[i].AdjClose
	}
	sma, err := calculator.RollingSMA(closes, window)
	if err != nil {
		return err
	}
	for k, i := range idx {
		rows[i].MovingAverage = sma[k]
	}
	return nil
}

func allIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
