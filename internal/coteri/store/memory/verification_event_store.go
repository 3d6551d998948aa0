package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coteri/server/internal/coteri/store"
)

// VerificationEventStore is an in-memory append-only log of scan
// decisions. Intended for tests and dev environments.
type VerificationEventStore struct {
	mu     sync.Mutex
	events []store.VerificationEventRecord
}

func NewVerificationEventStore() *VerificationEventStore {
	return &VerificationEventStore{}
}

func (s *VerificationEventStore) RecordEvent(_ context.Context, rec store.VerificationEventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = time.Now().UTC()
	}
	s.events = append(s.events, rec)
	return nil
}

func (s *VerificationEventStore) LatestByMembership(_ context.Context, membershipID string) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *time.Time
	for _, ev := range s.events {
		if ev.MembershipID == nil || *ev.MembershipID != membershipID {
			continue
		}
		if latest == nil || ev.OccurredAt.After(*latest) {
			t := ev.OccurredAt
			latest = &t
		}
	}
	return latest, nil
}

func (s *VerificationEventStore) RecentByStaffAndVenue(_ context.Context, staffUserID, venueID string, since time.Time) ([]store.VerificationEventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []store.VerificationEventRecord
	for _, ev := range s.events {
		if ev.StaffUserID != staffUserID || ev.VenueID != venueID {
			continue
		}
		if ev.OccurredAt.Before(since) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

// Events returns a copy of all recorded events. Test-only helper.
func (s *VerificationEventStore) Events() []store.VerificationEventRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.VerificationEventRecord, len(s.events))
	copy(out, s.events)
	return out
}
