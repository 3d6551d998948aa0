package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/coteri/server/internal/coteri/store"
)

// MembershipStore reads membership snapshots. The verification core never
// writes memberships, so this store has no writer.
type MembershipStore struct {
	db *sql.DB
}

func NewMembershipStore(db *sql.DB) *MembershipStore {
	return &MembershipStore{db: db}
}

func (s *MembershipStore) GetByIDAndVenue(ctx context.Context, membershipID, venueID string) (*store.MembershipRecord, error) {
	return s.get(ctx, `
SELECT membership_id, user_id, venue_id, status, tier, expires_at_ms
FROM memberships
WHERE membership_id = ? AND venue_id = ?;
`, membershipID, venueID)
}

func (s *MembershipStore) GetByUserAndVenue(ctx context.Context, userID, venueID string) (*store.MembershipRecord, error) {
	return s.get(ctx, `
SELECT membership_id, user_id, venue_id, status, tier, expires_at_ms
FROM memberships
WHERE user_id = ? AND venue_id = ?;
`, userID, venueID)
}

// get runs a venue-scoped membership query. The venue id is part of the
// WHERE clause, never filtered after the fact, so cross-venue reads are
// structurally impossible.
func (s *MembershipStore) get(ctx context.Context, query, key, venueID string) (*store.MembershipRecord, error) {
	key = strings.TrimSpace(key)
	venueID = strings.TrimSpace(venueID)
	if key == "" || venueID == "" {
		return nil, nil
	}

	var (
		rec       store.MembershipRecord
		expiresMs sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, query, key, venueID).Scan(
		&rec.ID, &rec.UserID, &rec.VenueID, &rec.Status, &rec.Tier, &expiresMs,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("membership query: %w", err)
	}

	if expiresMs.Valid {
		t := time.UnixMilli(expiresMs.Int64).UTC()
		rec.ExpiresAt = &t
	}
	return &rec, nil
}
