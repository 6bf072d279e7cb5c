// README: Trip service; create/cancel/complete with ownership and status guards.
package trip

import (
	"context"
	"crypto/rand"
	"errors"
	"time"

	"courier/internal/types"
)

var (
	ErrNotFound   = errors.New("trip not found")
	ErrBadRequest = errors.New("bad trip request")
	ErrForbidden  = errors.New("actor not permitted for this trip")
	ErrConflict   = errors.New("trip state conflict")
	ErrHasParcels = errors.New("trip still carries accepted parcels")
)

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

type CreateCommand struct {
	Origin      types.Endpoint
	Destination types.Endpoint
	DepartureAt time.Time
	Capacity    int
	Price       types.Money
}

func (s *Service) Create(ctx context.Context, actor types.Actor, cmd CreateCommand) (*Trip, error) {
	if actor.Role != types.RoleTraveller || !actor.Verified {
		return nil, ErrForbidden
	}
	if cmd.Origin.City == "" || cmd.Destination.City == "" {
		return nil, ErrBadRequest
	}
	if cmd.Capacity < 1 || cmd.Price.Amount < 0 {
		return nil, ErrBadRequest
	}
	if cmd.DepartureAt.Before(time.Now()) {
		return nil, ErrBadRequest
	}

	t := &Trip{
		Code:            NewCode(),
		TravellerID:     actor.ID,
		Origin:          cmd.Origin,
		Destination:     cmd.Destination,
		DepartureAt:     cmd.DepartureAt,
		Capacity:        cmd.Capacity,
		Price:           cmd.Price,
		Status:          StatusActive,
		AcceptedParcels: []string{},
		CreatedAt:       time.Now(),
	}
	if err := s.store.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) Get(ctx context.Context, code string) (*Trip, error) {
	return s.store.GetByCode(ctx, code)
}

func (s *Service) ListMine(ctx context.Context, actor types.Actor) ([]*Trip, error) {
	return s.store.ListByTraveller(ctx, actor.ID)
}

// Cancel takes an active trip out of matching. Trips that already carry
// parcels cannot be cancelled; the parcels would be stranded mid-lifecycle.
func (s *Service) Cancel(ctx context.Context, actor types.Actor, code string) error {
	t, err := s.store.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	if t.TravellerID != actor.ID {
		return ErrForbidden
	}
	if t.Status != StatusActive {
		return ErrConflict
	}
	if len(t.AcceptedParcels) > 0 {
		return ErrHasParcels
	}
	ok, err := s.store.SetStatus(ctx, code, StatusActive, StatusCancelled)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	return nil
}

// Complete marks an active trip finished. Returns ErrConflict when the trip
// was not active.
func (s *Service) Complete(ctx context.Context, code string) error {
	ok, err := s.store.SetStatus(ctx, code, StatusActive, StatusCompleted)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	return nil
}

const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// NewCode returns a short human-readable trip code, e.g. TRP-7KQ2MX.
func NewCode() string {
	var b [6]byte
	_, _ = rand.Read(b[:])
	out := make([]byte, 6)
	for i, v := range b {
		out[i] = codeAlphabet[int(v)%len(codeAlphabet)]
	}
	return "TRP-" + string(out)
}
