package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type VenueStore struct {
	db *sql.DB
}

func NewVenueStore(db *sql.DB) *VenueStore {
	return &VenueStore{db: db}
}

// GetName returns the venue's display name, or "" when the venue is
// unknown. Callers substitute their own placeholder.
func (s *VenueStore) GetName(ctx context.Context, venueID string) (string, error) {
	venueID = strings.TrimSpace(venueID)
	if venueID == "" {
		return "", nil
	}

	var name string
	err := s.db.QueryRowContext(ctx, `
SELECT name FROM venues WHERE venue_id = ?;
`, venueID).Scan(&name)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("venue name query: %w", err)
	}
	return name, nil
}
