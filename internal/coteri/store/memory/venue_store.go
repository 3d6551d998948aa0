package memory

import (
	"context"
	"sync"
)

// VenueStore is an in-memory venue-name lookup for tests and dev.
type VenueStore struct {
	mu    sync.RWMutex
	names map[string]string // venue id -> display name
}

func NewVenueStore(names map[string]string) *VenueStore {
	m := make(map[string]string, len(names))
	for id, name := range names {
		m[id] = name
	}
	return &VenueStore{names: m}
}

func (s *VenueStore) GetName(_ context.Context, venueID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.names[venueID], nil
}
