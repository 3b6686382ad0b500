package dashboard

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"MarketLens/internal/model"
	"MarketLens/internal/preparer"
	"MarketLens/internal/recorder"
)

// TickerInfo pairs a symbol with its display name.
type TickerInfo struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
}

// Service answers chart queries over the memoized table and records every
// freshly prepared table.
type Service struct {
	store    *Store
	names    model.TickerNames
	recorder recorder.Recorder
	log      zerolog.Logger
}

// NewService creates a Service reading csvPath.
func NewService(csvPath string, opts preparer.Options, rec recorder.Recorder, log zerolog.Logger) *Service {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Service{
		store:    NewStore(csvPath, opts, log),
		names:    opts.Names,
		recorder: rec,
		log:      log.With().Str("service", "dashboard").Logger(),
	}
}

// Snapshot returns the current prepared table.
func (s *Service) Snapshot() (*Snapshot, error) {
	snap, fresh, err := s.store.Get()
	if err != nil {
		return nil, err
	}
	if fresh {
		s.record(snap)
	}
	return snap, nil
}

// Reload forces the CSV to be re-read, e.g. after a refresh rewrote it.
func (s *Service) Reload() (*Snapshot, error) {
	snap, fresh, err := s.store.Reload()
	if err != nil {
		return nil, err
	}
	if fresh {
		s.record(snap)
	}
	return snap, nil
}

// Years lists the selectable years.
func (s *Service) Years() ([]int, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return preparer.Years(snap.Rows), nil
}

// Tickers lists the tickers present with their display names.
func (s *Service) Tickers() ([]TickerInfo, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	tickers := preparer.Tickers(snap.Rows)
	out := make([]TickerInfo, len(tickers))
	for i, t := range tickers {
		out[i] = TickerInfo{Ticker: t, Name: s.names.Lookup(t)}
	}
	return out, nil
}

// Options returns the preparer options the table is built with.
func (s *Service) Options() preparer.Options { return s.store.opts }

// Names returns the display-name mapping in use.
func (s *Service) Names() model.TickerNames { return s.names }

// Rows returns enriched rows filtered by year and ticker (zero values match all).
func (s *Service) Rows(year int, ticker string) ([]model.EnrichedRow, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return preparer.Filter(snap.Rows, year, ticker), nil
}

// Direction returns loss/profit day counts per ticker for year.
func (s *Service) Direction(year int) (map[string]model.DirectionCount, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return preparer.GroupByYearAndDirection(snap.Rows, year), nil
}

// MonthlyVolume returns summed volume per (month, ticker) for year.
func (s *Service) MonthlyVolume(year int) (map[model.MonthTicker]float64, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return preparer.MonthlyVolumeByTicker(snap.Rows, year), nil
}

// Summary returns per-ticker percentage change statistics for year.
func (s *Service) Summary(year int) ([]model.YearSummary, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return preparer.SummarizeYear(snap.Rows, year), nil
}

// Series returns the adjusted close history per ticker and the overall span.
// The span is zero when the table is empty.
func (s *Service) Series() ([]model.TickerSeries, model.Span, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, model.Span{}, err
	}
	series := preparer.SeriesByTicker(snap.Rows)
	span, err := preparer.Span(snap.Rows)
	if err != nil && !errors.Is(err, preparer.ErrNoRows) {
		return nil, model.Span{}, fmt.Errorf("span: %w", err)
	}
	return series, span, nil
}

// record persists a fresh snapshot's groupings. Failures are logged only.
func (s *Service) record(snap *Snapshot) {
	evt := &recorder.LoadEvent{
		ID:          uuid.New().String(),
		Path:        snap.Path,
		Fingerprint: snap.Fingerprint,
		Rows:        len(snap.Rows),
		LoadedAt:    snap.LoadedAt,
	}
	if span, err := preparer.Span(snap.Rows); err == nil {
		evt.FirstDate = span.First
		evt.LastDate = span.Last
	}
	if err := s.recorder.RecordLoad(evt); err != nil {
		s.log.Error().Err(err).Msg("record load")
		return
	}

	for _, year := range preparer.Years(snap.Rows) {
		if err := s.recorder.RecordDirection(&recorder.DirectionSnapshot{
			LoadID: evt.ID,
			Year:   year,
			Counts: preparer.GroupByYearAndDirection(snap.Rows, year),
		}); err != nil {
			s.log.Error().Err(err).Int("year", year).Msg("record direction counts")
		}
		if err := s.recorder.RecordMonthlyVolume(&recorder.VolumeSnapshot{
			LoadID: evt.ID,
			Year:   year,
			Volume: preparer.MonthlyVolumeByTicker(snap.Rows, year),
		}); err != nil {
			s.log.Error().Err(err).Int("year", year).Msg("record monthly volume")
		}
	}
	s.log.Debug().Str("load_id", evt.ID).Msg("recorded prepared table")
}
