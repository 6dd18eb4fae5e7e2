// Package sqlite persists fetched daily bars so backtests can run offline.
// Computed results are deliberately not stored.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"quantdash/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Store reads and writes daily bars in a single SQLite database.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the bar database with WAL mode and the schema.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened bar store at %s", dbPath)
	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS daily_bars (
			ticker TEXT    NOT NULL,
			ts     INTEGER NOT NULL,
			open   REAL    NOT NULL,
			high   REAL    NOT NULL,
			low    REAL    NOT NULL,
			close  REAL    NOT NULL,
			volume INTEGER,
			PRIMARY KEY (ticker, ts)
		);
	`)
	return err
}

// DB returns the underlying sql.DB for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// UpsertBars writes a batch of bars in a single transaction.
func (s *Store) UpsertBars(ctx context.Context, bars []model.DailyBar) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO daily_bars (ticker, ts, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.Exec(b.Ticker, b.Date.Unix(), b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	log.Printf("[sqlite] committed %d bars", len(bars))
	return nil
}

// ReadBars reads a ticker's bars in [start, end], ordered by date ascending.
func (s *Store) ReadBars(ctx context.Context, ticker string, start, end time.Time) ([]model.DailyBar, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ticker, ts, open, high, low, close, volume
		FROM daily_bars
		WHERE ticker = ? AND ts >= ? AND ts <= ?
		ORDER BY ts ASC
	`, ticker, start.Unix(), end.Unix())
	if err != nil {
		return nil, fmt.Errorf("sqlite query daily_bars: %w", err)
	}
	defer rows.Close()

	var bars []model.DailyBar
	for rows.Next() {
		var b model.DailyBar
		var tsUnix int64
		var volume sql.NullInt64
		if err := rows.Scan(&b.Ticker, &tsUnix, &b.Open, &b.High, &b.Low, &b.Close, &volume); err != nil {
			return nil, fmt.Errorf("sqlite scan daily_bars: %w", err)
		}
		b.Date = time.Unix(tsUnix, 0).UTC()
		b.Volume = volume.Int64
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// LastBarDate returns the most recent stored date for a ticker, or the zero
// time when no bars exist.
func (s *Store) LastBarDate(ctx context.Context, ticker string) (time.Time, error) {
	var ts sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(ts) FROM daily_bars WHERE ticker = ?`, ticker,
	).Scan(&ts)
	if err != nil {
		return time.Time{}, err
	}
	if !ts.Valid {
		return time.Time{}, nil
	}
	return time.Unix(ts.Int64, 0).UTC(), nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }
