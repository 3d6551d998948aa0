package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type SeedDevOptions struct {
	// VenueID/VenueName override the starter venue. Defaults below.
	VenueID   string
	VenueName string
}

// SeedDev inserts a starter venue plus one membership per display state so
// the verify flow can be exercised end to end without the payment layer.
func SeedDev(ctx context.Context, db *sql.DB, opt SeedDevOptions) error {
	now := time.Now().UTC()
	nowMs := now.UnixMilli()

	venueID := opt.VenueID
	if venueID == "" {
		venueID = "venue_dev"
	}
	venueName := opt.VenueName
	if venueName == "" {
		venueName = "Dev Venue"
	}

	if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO venues(venue_id, name, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?);`, venueID, venueName, nowMs, nowMs); err != nil {
		return fmt.Errorf("seed venue: %w", err)
	}

	seeds := []struct {
		id, user, status, tier string
		expiresAt              *time.Time
	}{
		{"mem_active", "user_active", "active", "gold", nil},
		{"mem_active_expiring", "user_expiring", "active", "silver", timePtr(now.Add(30 * 24 * time.Hour))},
		{"mem_grace", "user_grace", "active", "silver", timePtr(now.Add(-3 * 24 * time.Hour))},
		{"mem_expired", "user_expired", "expired", "bronze", timePtr(now.Add(-60 * 24 * time.Hour))},
		{"mem_revoked", "user_revoked", "revoked", "gold", nil},
		{"mem_pending", "user_pending", "pending", "", nil},
	}

	for _, s := range seeds {
		var expiresMs any
		if s.expiresAt != nil {
			expiresMs = s.expiresAt.UnixMilli()
		}
		if _, err := db.ExecContext(ctx, `
INSERT INTO memberships(
  membership_id, user_id, venue_id, status, tier, expires_at_ms,
  created_at_ms, updated_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(membership_id) DO UPDATE SET
  status        = excluded.status,
  tier          = excluded.tier,
  expires_at_ms = excluded.expires_at_ms,
  updated_at_ms = excluded.updated_at_ms;
`, s.id, s.user, venueID, s.status, s.tier, expiresMs, nowMs, nowMs); err != nil {
			return fmt.Errorf("seed membership %s: %w", s.id, err)
		}
	}

	return nil
}

func timePtr(t time.Time) *time.Time { return &t }
