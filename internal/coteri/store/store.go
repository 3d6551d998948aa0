package store

import (
	"context"
	"time"
)

// MembershipRecord is the stored membership snapshot the verification core
// reads. The core never mutates memberships — payment and subscription
// lifecycle own those writes.
type MembershipRecord struct {
	ID        string
	UserID    string
	VenueID   string
	Status    string // canonical values: active/expired/revoked/pending/provisioning
	Tier      string
	ExpiresAt *time.Time
}

// MembershipStore exposes venue-scoped, read-only membership lookups.
// Both lookups return (nil, nil) when no row matches — "not found" is a
// normal outcome, indistinguishable from a bad payload by design. The
// venue id is a hard filter in the query, never a post-filter, so staff
// at one venue can never enumerate another venue's memberships.
type MembershipStore interface {
	GetByIDAndVenue(ctx context.Context, membershipID, venueID string) (*MembershipRecord, error)
	GetByUserAndVenue(ctx context.Context, userID, venueID string) (*MembershipRecord, error)
}

// VenueStore resolves venue display names for verification results.
type VenueStore interface {
	GetName(ctx context.Context, venueID string) (string, error)
}
