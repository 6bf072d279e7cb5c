// README: In-memory trip store with the same conditional-write contract as Postgres.
package trip

import (
	"context"
	"sync"
	"time"

	"courier/internal/types"
)

type MemoryStore struct {
	mu    sync.Mutex
	trips map[string]*Trip
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{trips: make(map[string]*Trip)}
}

func (s *MemoryStore) Create(ctx context.Context, t *Trip) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := cloneTrip(t)
	s.trips[t.Code] = cp
	return nil
}

func (s *MemoryStore) GetByCode(ctx context.Context, code string) (*Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trips[code]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneTrip(t), nil
}

func (s *MemoryStore) ListByTraveller(ctx context.Context, travellerID types.ID) ([]*Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Trip
	for _, t := range s.trips {
		if t.TravellerID == travellerID {
			out = append(out, cloneTrip(t))
		}
	}
	return out, nil
}

func (s *MemoryStore) ListActiveDeparting(ctx context.Context, from, to time.Time) ([]*Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Trip
	for _, t := range s.trips {
		if t.Status != StatusActive {
			continue
		}
		if t.DepartureAt.Before(from) || t.DepartureAt.After(to) {
			continue
		}
		out = append(out, cloneTrip(t))
	}
	return out, nil
}

func (s *MemoryStore) ReserveSlot(ctx context.Context, code, parcelCode string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trips[code]
	if !ok {
		return false, nil
	}
	if t.Status != StatusActive || len(t.AcceptedParcels) >= t.Capacity {
		return false, nil
	}
	for _, c := range t.AcceptedParcels {
		if c == parcelCode {
			return false, nil
		}
	}
	t.AcceptedParcels = append(t.AcceptedParcels, parcelCode)
	return true, nil
}

func (s *MemoryStore) ReleaseSlot(ctx context.Context, code, parcelCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trips[code]
	if !ok {
		return nil
	}
	kept := t.AcceptedParcels[:0]
	for _, c := range t.AcceptedParcels {
		if c != parcelCode {
			kept = append(kept, c)
		}
	}
	t.AcceptedParcels = kept
	return nil
}

func (s *MemoryStore) SetStatus(ctx context.Context, code string, from, to Status) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trips[code]
	if !ok || t.Status != from {
		return false, nil
	}
	t.Status = to
	return true, nil
}

func cloneTrip(t *Trip) *Trip {
	cp := *t
	cp.AcceptedParcels = append([]string(nil), t.AcceptedParcels...)
	return &cp
}
