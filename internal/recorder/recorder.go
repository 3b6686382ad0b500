package recorder

import (
	"time"

	"MarketLens/internal/model"
)

// LoadEvent describes one freshly prepared table.
type LoadEvent struct {
	ID          string
	Path        string
	Fingerprint string
	Rows        int
	FirstDate   time.Time
	LastDate    time.Time
	LoadedAt    time.Time
}

// DirectionSnapshot holds one year's loss/profit day counts.
type DirectionSnapshot struct {
	LoadID string
	Year   int
	Counts map[string]model.DirectionCount
}

// VolumeSnapshot holds one year's monthly volume per ticker.
type VolumeSnapshot struct {
	LoadID string
	Year   int
	Volume map[model.MonthTicker]float64
}

// Recorder persists prepared groupings for external dashboards.
type Recorder interface {
	RecordLoad(evt *LoadEvent) error
	RecordDirection(snap *DirectionSnapshot) error
	RecordMonthlyVolume(snap *VolumeSnapshot) error
	Close() error
}
