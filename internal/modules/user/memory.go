// README: In-memory user store.
package user

import (
	"context"
	"sync"

	"courier/internal/types"
)

type MemoryStore struct {
	mu    sync.Mutex
	users map[types.ID]*User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[types.ID]*User)}
}

func (s *MemoryStore) Get(ctx context.Context, id types.ID) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) Create(ctx context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *MemoryStore) IncrementDeliveryStats(ctx context.Context, travellerID, senderID types.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[travellerID]; ok {
		u.TotalDeliveries++
	}
	if u, ok := s.users[senderID]; ok {
		u.TotalPackages++
	}
	return nil
}
