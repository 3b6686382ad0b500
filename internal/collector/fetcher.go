package collector

import (
	"context"
	"time"

	"MarketLens/internal/model"
)

// Fetcher defines the interface for fetching daily price history.
type Fetcher interface {
	FetchDaily(ctx context.Context, ticker string, from, to time.Time) ([]model.RawRow, error)
	Name() string
}
