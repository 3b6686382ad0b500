// Package dashboard owns the prepared market table for a running process and
// answers the queries behind each chart.
package dashboard

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"MarketLens/internal/loader"
	"MarketLens/internal/model"
	"MarketLens/internal/preparer"
)

// Snapshot is an immutable prepared table.
type Snapshot struct {
	Path        string
	Fingerprint string
	Rows        []model.EnrichedRow
	LoadedAt    time.Time
}

// Store memoizes the prepared table of one CSV file. The cached snapshot is
// reused while the file's mod token is unchanged, and also when the token
// moved but the content hash did not.
type Store struct {
	mu    sync.Mutex
	path  string
	opts  preparer.Options
	token loader.Token
	snap  *Snapshot
	log   zerolog.Logger
}

// NewStore creates a Store for path. Nothing is read until the first Get.
func NewStore(path string, opts preparer.Options, log zerolog.Logger) *Store {
	return &Store{
		path: path,
		opts: opts,
		log:  log.With().Str("component", "store").Logger(),
	}
}

// Get returns the current snapshot. fresh reports whether it was prepared by
// this call.
func (s *Store) Get() (snap *Snapshot, fresh bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, err := loader.Stat(s.path)
	if err != nil {
		return nil, false, fmt.Errorf("stat %s: %w", s.path, err)
	}
	if s.snap != nil && tok == s.token {
		return s.snap, false, nil
	}
	return s.load()
}

// Reload re-reads the file regardless of its mod token.
func (s *Store) Reload() (snap *Snapshot, fresh bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// load must be called with mu held.
func (s *Store) load() (*Snapshot, bool, error) {
	f, err := loader.LoadFile(s.path)
	if err != nil {
		return nil, false, err
	}
	if s.snap != nil && s.snap.Fingerprint == f.Fingerprint {
		s.token = f.Token
		s.log.Debug().Str("fingerprint", f.Fingerprint).Msg("content unchanged, keeping prepared table")
		return s.snap, false, nil
	}

	rows, err := preparer.Prepare(f.Rows, s.opts)
	if err != nil {
		return nil, false, fmt.Errorf("prepare %s: %w", s.path, err)
	}
	s.token = f.Token
	s.snap = &Snapshot{
		Path:        s.path,
		Fingerprint: f.Fingerprint,
		Rows:        rows,
		LoadedAt:    time.Now(),
	}
	s.log.Info().
		Str("path", s.path).
		Int("rows", len(rows)).
		Str("fingerprint", f.Fingerprint).
		Msg("prepared market table")
	return s.snap, true, nil
}
