package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"MarketLens/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Rows map[string][]model.RawRow
	Err  error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDaily(_ context.Context, ticker string, _, _ time.Time) ([]model.RawRow, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Rows[ticker], nil
}

// Collector gathers the daily history of a fixed set of tickers.
type Collector struct {
	Fetcher Fetcher
	Tickers []string
	log     zerolog.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, tickers []string, log zerolog.Logger) *Collector {
	return &Collector{
		Fetcher: fetcher,
		Tickers: tickers,
		log:     log.With().Str("component", "collector").Str("source", fetcher.Name()).Logger(),
	}
}

// Collect fetches every ticker and returns their rows grouped by ticker, in
// the configured ticker order. Any failure aborts the whole collection.
func (c *Collector) Collect(ctx context.Context, from, to time.Time) ([]model.RawRow, error) {
	var rows []model.RawRow
	for _, ticker := range c.Tickers {
		got, err := c.Fetcher.FetchDaily(ctx, ticker, from, to)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", ticker, err)
		}
		if len(got) == 0 {
			c.log.Warn().Str("ticker", ticker).Msg("no rows returned")
		}
		c.log.Debug().Str("ticker", ticker).Int("rows", len(got)).Msg("fetched daily history")
		rows = append(rows, got...)
	}
	return rows, nil
}
