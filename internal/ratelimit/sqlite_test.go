package ratelimit

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "rate.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteCounter_CountsWithinWindow(t *testing.T) {
	counter, err := NewSQLiteCounter(testDB(t))
	if err != nil {
		t.Fatalf("NewSQLiteCounter: %v", err)
	}
	ctx := context.Background()
	now := time.Now()

	for want := 1; want <= 3; want++ {
		count, _, err := counter.Record(ctx, "publish:alice", now, time.Hour)
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
		if count != want {
			t.Fatalf("count = %d, want %d", count, want)
		}
	}
}

func TestSQLiteCounter_PrunesExpiredEvents(t *testing.T) {
	counter, err := NewSQLiteCounter(testDB(t))
	if err != nil {
		t.Fatalf("NewSQLiteCounter: %v", err)
	}
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 4; i++ {
		if _, _, err := counter.Record(ctx, "k", base, time.Minute); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	// Two minutes later the old events fall outside the window.
	count, oldest, err := counter.Record(ctx, "k", base.Add(2*time.Minute), time.Minute)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if count != 1 {
		t.Fatalf("expired events not pruned, count = %d", count)
	}
	if oldest.Before(base.Add(time.Minute)) {
		t.Fatalf("oldest should be the fresh event, got %s", oldest)
	}
}

func TestSQLiteCounter_KeysAreIndependent(t *testing.T) {
	counter, err := NewSQLiteCounter(testDB(t))
	if err != nil {
		t.Fatalf("NewSQLiteCounter: %v", err)
	}
	ctx := context.Background()
	now := time.Now()

	counter.Record(ctx, "publish:alice", now, time.Hour)
	counter.Record(ctx, "publish:alice", now, time.Hour)
	count, _, err := counter.Record(ctx, "publish:bob", now, time.Hour)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if count != 1 {
		t.Fatalf("keys leaked into each other, count = %d", count)
	}
}
