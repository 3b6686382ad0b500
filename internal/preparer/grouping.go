package preparer

import (
	"sort"
	"time"

	"MarketLens/internal/calculator"
	"MarketLens/internal/model"
)

// GroupByYearAndDirection counts loss days (direction 0) and profit days
// (direction 1) per ticker within year. Tickers without rows that year are
// absent; a ticker with rows always reports both counts.
func GroupByYearAndDirection(rows []model.EnrichedRow, year int) map[string]model.DirectionCount {
	out := make(map[string]model.DirectionCount)
	for _, r := range rows {
		if r.Year != year {
			continue
		}
		c := out[r.Ticker]
		if r.PriceChangeDirection == 1 {
			c.Profit++
		} else {
			c.Loss++
		}
		out[r.Ticker] = c
	}
	return out
}

// MonthlyVolumeByTicker sums Volume per (month, ticker) within year. Months
// without trades are absent rather than zero.
func MonthlyVolumeByTicker(rows []model.EnrichedRow, year int) map[model.MonthTicker]float64 {
	out := make(map[model.MonthTicker]float64)
	for _, r := range rows {
		if r.Year != year {
			continue
		}
		out[model.MonthTicker{Month: r.Month, Ticker: r.Ticker}] += r.Volume
	}
	return out
}

// Years returns the distinct years present, ascending.
func Years(rows []model.EnrichedRow) []int {
	seen := make(map[int]struct{})
	years := make([]int, 0)
	for _, r := range rows {
		if _, ok := seen[r.Year]; ok {
			continue
		}
		seen[r.Year] = struct{}{}
		years = append(years, r.Year)
	}
	sort.Ints(years)
	return years
}

// Tickers returns the distinct tickers present, ascending.
func Tickers(rows []model.EnrichedRow) []string {
	seen := make(map[string]struct{})
	tickers := make([]string, 0)
	for _, r := range rows {
		if _, ok := seen[r.Ticker]; ok {
			continue
		}
		seen[r.Ticker] = struct{}{}
		tickers = append(tickers, r.Ticker)
	}
	sort.Strings(tickers)
	return tickers
}

// SeriesByTicker returns each ticker's adjusted close history, tickers in
// symbol order and points in date order.
func SeriesByTicker(rows []model.EnrichedRow) []model.TickerSeries {
	byTicker := make(map[string]*model.TickerSeries)
	for _, r := range rows {
		s, ok := byTicker[r.Ticker]
		if !ok {
			s = &model.TickerSeries{Ticker: r.Ticker, Name: r.TickerName}
			byTicker[r.Ticker] = s
		}
		s.Points = append(s.Points, model.SeriesPoint{Date: r.Date, AdjClose: r.AdjClose})
	}

	out := make([]model.TickerSeries, 0, len(byTicker))
	for _, ticker := range Tickers(rows) {
		s := byTicker[ticker]
		sort.SliceStable(s.Points, func(i, j int) bool { return s.Points[i].Date.Before(s.Points[j].Date) })
		out = append(out, *s)
	}
	return out
}

// SummarizeYear describes each ticker's percentage changes within year.
// Non-finite percentages are left out of the mean and deviation.
func SummarizeYear(rows []model.EnrichedRow, year int) []model.YearSummary {
	type acc struct {
		name   string
		days   int
		profit int
		pcts   []float64
	}
	byTicker := make(map[string]*acc)
	for _, r := range rows {
		if r.Year != year {
			continue
		}
		a, ok := byTicker[r.Ticker]
		if !ok {
			a = &acc{name: r.TickerName}
			byTicker[r.Ticker] = a
		}
		a.days++
		a.profit += r.PriceChangeDirection
		a.pcts = append(a.pcts, r.PricePercentageChange)
	}

	out := make([]model.YearSummary, 0, len(byTicker))
	for ticker, a := range byTicker {
		pcts := calculator.Finite(a.pcts)
		out = append(out, model.YearSummary{
			Ticker:      ticker,
			Name:        a.name,
			TradingDays: a.days,
			ProfitDays:  a.profit,
			MeanPct:     calculator.Mean(pcts),
			StdDevPct:   calculator.StdDev(pcts),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}

// Span returns the date range and adjusted close range of rows.
func Span(rows []model.EnrichedRow) (model.Span, error) {
	if len(rows) == 0 {
		return model.Span{}, ErrNoRows
	}
	dates := make([]time.Time, len(rows))
	closes := make([]float64, len(rows))
	for i, r := range rows {
		dates[i] = r.Date
		closes[i] = r.AdjClose
	}
	first, last, err := calculator.DateRange(dates)
	if err != nil {
		return model.Span{}, err
	}
	high, low, err := calculator.PriceRange(closes)
	if err != nil {
		return model.Span{}, err
	}
	return model.Span{First: first, Last: last, Low: low, High: high}, nil
}

// Filter returns the rows matching year and ticker. A zero year or empty
// ticker matches everything.
func Filter(rows []model.EnrichedRow, year int, ticker string) []model.EnrichedRow {
	out := make([]model.EnrichedRow, 0, len(rows))
	for _, r := range rows {
		if year != 0 && r.Year != year {
			continue
		}
		if ticker != "" && r.Ticker != ticker {
			continue
		}
		out = append(out, r)
	}
	return out
}
