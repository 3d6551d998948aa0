package store

import (
	"context"
	"time"
)

// VerificationEventRecord captures a single scan decision for the audit
// log. MembershipID is nil when no membership could be associated with the
// attempt (unparseable payload, venue-mismatched token, or lookup miss).
type VerificationEventRecord struct {
	ID           string // assigned by the store when empty
	StaffUserID  string
	VenueID      string
	MembershipID *string
	Result       string // valid | expired | invalid
	RawPayload   string
	FlagReason   *string
	FlagScore    *int
	OccurredAt   time.Time
}

// VerificationEventStore persists scan decisions as an append-only audit
// log. Rows are never updated or deleted by this core.
type VerificationEventStore interface {
	RecordEvent(ctx context.Context, rec VerificationEventRecord) error

	// LatestByMembership returns the time of the most recent event for a
	// membership, or nil when it has never been scanned.
	LatestByMembership(ctx context.Context, membershipID string) (*time.Time, error)

	// RecentByStaffAndVenue returns this staff member's events at the
	// venue since the given instant, for fraud scoring.
	RecentByStaffAndVenue(ctx context.Context, staffUserID, venueID string, since time.Time) ([]VerificationEventRecord, error)
}
