// README: In-memory wallet store; one mutex keeps the balance and its record atomic.
package wallet

import (
	"context"
	"sort"
	"sync"

	"courier/internal/types"
)

type MemoryStore struct {
	mu       sync.Mutex
	balances map[types.ID]int64
	ledger   []*Transaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{balances: make(map[types.ID]int64)}
}

func (s *MemoryStore) Balance(ctx context.Context, userID types.ID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[userID], nil
}

func (s *MemoryStore) CreditWithRecord(ctx context.Context, userID types.ID, amount int64, txn *Transaction) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[userID] += amount
	s.ledger = append(s.ledger, cloneTxn(txn))
	return s.balances[userID], nil
}

func (s *MemoryStore) DebitWithRecord(ctx context.Context, userID types.ID, amount int64, txn *Transaction) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.balances[userID] < amount {
		return s.balances[userID], false, nil
	}
	s.balances[userID] -= amount
	s.ledger = append(s.ledger, cloneTxn(txn))
	return s.balances[userID], true, nil
}

func (s *MemoryStore) AnnotateHoldTraveller(ctx context.Context, parcelCode string, travellerID types.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.ledger {
		if t.Type == TxHold && t.ParcelCode != nil && *t.ParcelCode == parcelCode {
			id := travellerID
			t.TravellerID = &id
		}
	}
	return nil
}

func (s *MemoryStore) ListByUser(ctx context.Context, userID types.ID) ([]*Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Transaction
	for _, t := range s.ledger {
		if t.SenderID == userID || (t.TravellerID != nil && *t.TravellerID == userID) {
			out = append(out, cloneTxn(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func cloneTxn(t *Transaction) *Transaction {
	cp := *t
	if t.ParcelCode != nil {
		v := *t.ParcelCode
		cp.ParcelCode = &v
	}
	if t.TravellerID != nil {
		v := *t.TravellerID
		cp.TravellerID = &v
	}
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		cp.CompletedAt = &v
	}
	return &cp
}
