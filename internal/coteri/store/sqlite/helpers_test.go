package sqlite_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/coteri/server/internal/db"
)

// openTestDB returns an in-memory SQLite connection with the same PRAGMAs
// and schema as production.  The connection is closed automatically when the
// test finishes.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// Each call gets a unique in-memory database.  The shared-cache URI
	// keeps the database alive for the lifetime of the connection pool
	// (important because sql.DB may close/reopen the underlying conn).
	dsn := fmt.Sprintf(
		"file:test_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)",
		t.Name(),
	)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("openTestDB: sql.Open: %v", err)
	}

	// Match production: single connection for SQLite safety.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: ping: %v", err)
	}

	// Apply the same migrations as production.
	if err := db.Migrate(context.Background(), conn); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: migrate: %v", err)
	}

	t.Cleanup(func() { conn.Close() })
	return conn
}

// newTestWriter returns a db.Writer backed by conn.  The writer is closed
// automatically when the test finishes.
func newTestWriter(t *testing.T, conn *sql.DB) *db.Writer {
	t.Helper()

	w := db.NewWriter(conn)
	t.Cleanup(func() { w.Close() })
	return w
}

// seedVenue inserts a venue row so foreign keys resolve.
func seedVenue(t *testing.T, conn *sql.DB, venueID, name string) {
	t.Helper()

	nowMs := time.Now().UTC().UnixMilli()
	_, err := conn.ExecContext(context.Background(), `
INSERT INTO venues(venue_id, name, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?);`, venueID, name, nowMs, nowMs)
	if err != nil {
		t.Fatalf("seedVenue %s: %v", venueID, err)
	}
}

// seedMembership inserts a membership row. expiresAt may be nil.
func seedMembership(t *testing.T, conn *sql.DB, id, userID, venueID, status, tier string, expiresAt *time.Time) {
	t.Helper()

	nowMs := time.Now().UTC().UnixMilli()
	var expiresMs any
	if expiresAt != nil {
		expiresMs = expiresAt.UTC().UnixMilli()
	}
	_, err := conn.ExecContext(context.Background(), `
INSERT INTO memberships(
  membership_id, user_id, venue_id, status, tier, expires_at_ms,
  created_at_ms, updated_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?);`,
		id, userID, venueID, status, tier, expiresMs, nowMs, nowMs)
	if err != nil {
		t.Fatalf("seedMembership %s: %v", id, err)
	}
}
