package ratelimit

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLiteCounter is a sliding-window Counter backed by a shared SQLite
// database: one row per request, pruned on every check. Suitable for a
// single-node deployment or a small fleet sharing one database file.
type SQLiteCounter struct {
	db *sql.DB
}

// NewSQLiteCounter prepares the rate_events table on an already-open
// database handle.
func NewSQLiteCounter(db *sql.DB) (*SQLiteCounter, error) {
	schema := `
	CREATE TABLE IF NOT EXISTS rate_events (
		key TEXT NOT NULL,
		ts  INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_rate_events_key_ts ON rate_events(key, ts);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("rate counter migration: %w", err)
	}
	return &SQLiteCounter{db: db}, nil
}

// Record implements Counter. The insert, prune, and count run in one
// transaction so a single check is atomic.
func (c *SQLiteCounter) Record(ctx context.Context, key string, now time.Time, window time.Duration) (int, time.Time, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, time.Time{}, err
	}
	defer tx.Rollback()

	nowMs := now.UnixMilli()
	floorMs := now.Add(-window).UnixMilli()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM rate_events WHERE key = ? AND ts < ?`, key, floorMs); err != nil {
		return 0, time.Time{}, err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO rate_events (key, ts) VALUES (?, ?)`, key, nowMs); err != nil {
		return 0, time.Time{}, err
	}

	var count int
	var oldestMs int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(ts) FROM rate_events WHERE key = ?`, key,
	).Scan(&count, &oldestMs); err != nil {
		return 0, time.Time{}, err
	}

	if err := tx.Commit(); err != nil {
		return 0, time.Time{}, err
	}
	return count, time.UnixMilli(oldestMs), nil
}
