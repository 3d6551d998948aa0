package memory

import (
	"context"
	"sync"

	"github.com/coteri/server/internal/coteri/store"
)

// MembershipStore is an in-memory, venue-scoped membership lookup.
// Intended for tests and dev environments.
type MembershipStore struct {
	mu      sync.RWMutex
	records map[string]store.MembershipRecord // keyed by membership id
}

func NewMembershipStore(records []store.MembershipRecord) *MembershipStore {
	m := make(map[string]store.MembershipRecord, len(records))
	for _, r := range records {
		m[r.ID] = r
	}
	return &MembershipStore{records: m}
}

func (s *MembershipStore) GetByIDAndVenue(_ context.Context, membershipID, venueID string) (*store.MembershipRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[membershipID]
	if !ok || r.VenueID != venueID {
		return nil, nil
	}
	out := r
	return &out, nil
}

func (s *MembershipStore) GetByUserAndVenue(_ context.Context, userID, venueID string) (*store.MembershipRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.records {
		if r.UserID == userID && r.VenueID == venueID {
			out := r
			return &out, nil
		}
	}
	return nil, nil
}

// Put inserts or replaces a record. Test-only helper.
func (s *MembershipStore) Put(rec store.MembershipRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
}
