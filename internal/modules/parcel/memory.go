// README: In-memory parcel store. Implements the same compare-and-set contract as
// the Postgres store under one mutex; backs the test suite and the memory backend.
package parcel

import (
	"context"
	"sort"
	"sync"
	"time"

	"courier/internal/types"
)

type MemoryStore struct {
	mu      sync.Mutex
	parcels map[string]*Parcel
	events  []Event
	nextID  int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{parcels: make(map[string]*Parcel)}
}

func (s *MemoryStore) Create(ctx context.Context, p *Parcel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parcels[p.Code] = cloneParcel(p)
	return nil
}

func (s *MemoryStore) GetByCode(ctx context.Context, code string) (*Parcel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.parcels[code]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneParcel(p), nil
}

func (s *MemoryStore) ListPending(ctx context.Context) ([]*Parcel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Parcel
	for _, p := range s.parcels {
		if p.Status == StatusPending {
			out = append(out, cloneParcel(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) ListBySender(ctx context.Context, senderID types.ID) ([]*Parcel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Parcel
	for _, p := range s.parcels {
		if p.SenderID == senderID {
			out = append(out, cloneParcel(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) Assign(ctx context.Context, code string, version int, travellerID types.ID, tripCode, otp string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.parcels[code]
	if !ok || p.Status != StatusPending || p.TravellerID != nil || p.StatusVersion != version {
		return false, nil
	}
	tid := travellerID
	tc := tripCode
	o := otp
	p.Status = StatusAccepted
	p.StatusVersion++
	p.TravellerID = &tid
	p.TripCode = &tc
	p.DeliveryOTP = &o
	return true, nil
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, code string, from, to Status, version int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.parcels[code]
	if !ok || p.Status != from || p.StatusVersion != version {
		return false, nil
	}
	p.Status = to
	p.StatusVersion++
	if to == StatusPickedUp {
		now := time.Now()
		p.PickedUpAt = &now
	}
	return true, nil
}

func (s *MemoryStore) ArmDeliveryOTP(ctx context.Context, code string, from Status, version int, otp string, expiresAt time.Time, proof string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.parcels[code]
	if !ok || p.Status != from || p.StatusVersion != version {
		return false, nil
	}
	o := otp
	e := expiresAt
	p.DeliveryOTP = &o
	p.OTPExpiresAt = &e
	if proof != "" {
		pr := proof
		p.DeliveryProof = &pr
	}
	p.StatusVersion++
	return true, nil
}

func (s *MemoryStore) ConfirmDelivered(ctx context.Context, code string, from Status, version int, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.parcels[code]
	if !ok || p.Status != from || p.StatusVersion != version {
		return false, nil
	}
	p.Status = StatusDelivered
	p.StatusVersion++
	p.DeliveryOTP = nil
	p.OTPExpiresAt = nil
	t := at
	p.DeliveredAt = &t
	return true, nil
}

func (s *MemoryStore) Dispute(ctx context.Context, code string, from Status, version int, reason string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.parcels[code]
	if !ok || p.Status != from || p.StatusVersion != version {
		return false, nil
	}
	r := reason
	p.Status = StatusDisputed
	p.StatusVersion++
	p.DisputeReason = &r
	return true, nil
}

func (s *MemoryStore) UpdateTracking(ctx context.Context, code string, from, to Status, version int, tracking []TrackingPoint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.parcels[code]
	if !ok || p.Status != from || p.StatusVersion != version {
		return false, nil
	}
	p.Tracking = append([]TrackingPoint(nil), tracking...)
	p.Status = to
	p.StatusVersion++
	return true, nil
}

func (s *MemoryStore) Replace(ctx context.Context, np *Parcel, version int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.parcels[np.Code]
	if !ok || (p.Status != StatusPending && p.Status != StatusExpired) || p.StatusVersion != version {
		return false, nil
	}
	p.Origin = np.Origin
	p.Destination = np.Destination
	p.ReceiverName = np.ReceiverName
	p.ReceiverContact = np.ReceiverContact
	p.Fee = np.Fee
	p.Payer = np.Payer
	p.Tracking = append([]TrackingPoint(nil), np.Tracking...)
	p.Status = StatusPending
	p.StatusVersion++
	return true, nil
}

func (s *MemoryStore) Delete(ctx context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.parcels[code]
	if !ok || (p.Status != StatusPending && p.Status != StatusExpired) {
		return false, nil
	}
	delete(s.parcels, code)
	return true, nil
}

func (s *MemoryStore) ExpireStale(ctx context.Context, before time.Time) ([]*Parcel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Parcel
	for _, p := range s.parcels {
		if p.Status != StatusPending || p.TravellerID != nil || p.CreatedAt.After(before) {
			continue
		}
		p.Status = StatusExpired
		p.StatusVersion++
		out = append(out, cloneParcel(p))
	}
	return out, nil
}

func (s *MemoryStore) SetPaymentStatus(ctx context.Context, code string, from, to PaymentStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.parcels[code]
	if !ok || p.PaymentStatus != from {
		return false, nil
	}
	p.PaymentStatus = to
	return true, nil
}

func (s *MemoryStore) CountUndelivered(ctx context.Context, codes []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, code := range codes {
		p, ok := s.parcels[code]
		if !ok {
			continue
		}
		if p.Status != StatusDelivered {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) AppendEvent(ctx context.Context, e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	ev := *e
	ev.ID = s.nextID
	s.events = append(s.events, ev)
	return nil
}

// Events returns a copy of the audit log (test helper).
func (s *MemoryStore) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func cloneParcel(p *Parcel) *Parcel {
	cp := *p
	cp.Tracking = append([]TrackingPoint(nil), p.Tracking...)
	if p.TravellerID != nil {
		id := *p.TravellerID
		cp.TravellerID = &id
	}
	if p.TripCode != nil {
		v := *p.TripCode
		cp.TripCode = &v
	}
	if p.DeliveryOTP != nil {
		v := *p.DeliveryOTP
		cp.DeliveryOTP = &v
	}
	if p.OTPExpiresAt != nil {
		v := *p.OTPExpiresAt
		cp.OTPExpiresAt = &v
	}
	if p.DeliveryProof != nil {
		v := *p.DeliveryProof
		cp.DeliveryProof = &v
	}
	if p.DisputeReason != nil {
		v := *p.DisputeReason
		cp.DisputeReason = &v
	}
	if p.PickedUpAt != nil {
		v := *p.PickedUpAt
		cp.PickedUpAt = &v
	}
	if p.DeliveredAt != nil {
		v := *p.DeliveredAt
		cp.DeliveredAt = &v
	}
	return &cp
}
