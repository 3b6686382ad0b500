package recorder

import (
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"MarketLens/internal/model"
)

const dateLayout = "2006-01-02"

// SQLiteRecorder persists prepared groupings to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so dashboards can read while a load is being written.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log.With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS loads (
			id          TEXT PRIMARY KEY,
			timestamp   INTEGER NOT NULL,
			path        TEXT,
			fingerprint TEXT,
			row_count   INTEGER,
			first_date  TEXT,
			last_date   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_loads_ts ON loads(timestamp)`,

		`CREATE TABLE IF NOT EXISTS direction_counts (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			load_id     TEXT NOT NULL,
			year        INTEGER NOT NULL,
			ticker      TEXT NOT NULL,
			loss_days   INTEGER,
			profit_days INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_direction_load_year ON direction_counts(load_id, year)`,

		`CREATE TABLE IF NOT EXISTS monthly_volume (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			load_id TEXT NOT NULL,
			year    INTEGER NOT NULL,
			month   INTEGER NOT NULL,
			ticker  TEXT NOT NULL,
			volume  REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_volume_load_year ON monthly_volume(load_id, year)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordLoad(evt *LoadEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO loads
		(id, timestamp, path, fingerprint, row_count, first_date, last_date)
		VALUES (?,?,?,?,?,?,?)`,
		evt.ID, evt.LoadedAt.Unix(), evt.Path, evt.Fingerprint, evt.Rows,
		formatDate(evt.FirstDate), formatDate(evt.LastDate),
	)
	return err
}

func (r *SQLiteRecorder) RecordDirection(snap *DirectionSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tickers := make([]string, 0, len(snap.Counts))
	for t := range snap.Counts {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	return r.inTx(func(tx *sql.Tx) error {
		for _, t := range tickers {
			c := snap.Counts[t]
			if _, err := tx.Exec(`INSERT INTO direction_counts
				(load_id, year, ticker, loss_days, profit_days)
				VALUES (?,?,?,?,?)`,
				snap.LoadID, snap.Year, t, c.Loss, c.Profit,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteRecorder) RecordMonthlyVolume(snap *VolumeSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]model.MonthTicker, 0, len(snap.Volume))
	for k := range snap.Volume {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Month != keys[j].Month {
			return keys[i].Month < keys[j].Month
		}
		return keys[i].Ticker < keys[j].Ticker
	})

	return r.inTx(func(tx *sql.Tx) error {
		for _, k := range keys {
			if _, err := tx.Exec(`INSERT INTO monthly_volume
				(load_id, year, month, ticker, volume)
				VALUES (?,?,?,?,?)`,
				snap.LoadID, snap.Year, k.Month, k.Ticker, snap.Volume[k],
			); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteRecorder) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// DB exposes the underlying handle for read-side queries.
func (r *SQLiteRecorder) DB() *sql.DB { return r.db }

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
