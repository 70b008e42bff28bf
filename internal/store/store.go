// Package store persists publishing history and the audit trail in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"postwave/internal/domain"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements domain.ResultStore using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Set connection pool (single connection for SQLite)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db, logger: logger}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS posts (
		id           TEXT PRIMARY KEY,
		user_id      TEXT NOT NULL,
		platform     TEXT NOT NULL,
		content      TEXT NOT NULL,
		message_ids  TEXT,
		incomplete   INTEGER DEFAULT 0,
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_posts_user ON posts(user_id, created_at);

	CREATE TABLE IF NOT EXISTS audit_log (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		action      TEXT NOT NULL,
		user_id     TEXT,
		platform    TEXT,
		detail      TEXT,
		level       TEXT,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_audit_time ON audit_log(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SavePost records a published post and its platform message ids.
func (s *SQLiteStore) SavePost(ctx context.Context, post domain.PublishedPost) error {
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	ids, err := json.Marshal(post.MessageIDs)
	if err != nil {
		return fmt.Errorf("cannot encode message ids: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO posts (id, user_id, platform, content, message_ids, incomplete, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		post.ID, post.UserID, string(post.Platform), post.Content, string(ids), post.Incomplete, post.CreatedAt,
	)
	return err
}

// ListPosts returns a user's most recent posts, newest first.
func (s *SQLiteStore) ListPosts(ctx context.Context, userID string, limit int) ([]domain.PublishedPost, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, platform, content, message_ids, incomplete, created_at
		 FROM posts WHERE user_id = ?
		 ORDER BY created_at DESC LIMIT ?`, userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []domain.PublishedPost
	for rows.Next() {
		var p domain.PublishedPost
		var platform string
		var ids sql.NullString
		if err := rows.Scan(&p.ID, &p.UserID, &platform, &p.Content, &ids, &p.Incomplete, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Platform = domain.Platform(platform)
		if ids.Valid && ids.String != "" {
			if err := json.Unmarshal([]byte(ids.String), &p.MessageIDs); err != nil {
				s.logger.Warn("corrupt message id list", "post_id", p.ID)
			}
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// SaveAudit appends one entry to the audit trail.
func (s *SQLiteStore) SaveAudit(ctx context.Context, entry domain.AuditEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log (action, user_id, platform, detail, level, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.Action, entry.UserID, entry.Platform, entry.Detail, entry.Level, entry.CreatedAt,
	)
	return err
}

// RecentAudit returns the latest audit entries, newest first.
func (s *SQLiteStore) RecentAudit(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT action, user_id, platform, detail, level, created_at
		 FROM audit_log ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var userID, platform, detail, level sql.NullString
		if err := rows.Scan(&e.Action, &userID, &platform, &detail, &level, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.UserID = userID.String
		e.Platform = platform.String
		e.Detail = detail.String
		e.Level = level.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DB exposes the underlying handle so collaborators, like the rate-limit
// counter, can share the same database file.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
