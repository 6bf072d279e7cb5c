// README: Matching engine; pairs pending parcels with departing trips and ranks
// the candidates. Pure predicate + score over store reads, with an optional cache.
package match

import (
	"context"
	"sort"
	"time"

	"courier/internal/config"
	"courier/internal/modules/parcel"
	"courier/internal/modules/trip"
)

// Parcels is the read slice of the parcel store the engine needs.
type Parcels interface {
	GetByCode(ctx context.Context, code string) (*parcel.Parcel, error)
	ListPending(ctx context.Context) ([]*parcel.Parcel, error)
}

// Trips is the read slice of the trip store the engine needs.
type Trips interface {
	GetByCode(ctx context.Context, code string) (*trip.Trip, error)
	ListActiveDeparting(ctx context.Context, from, to time.Time) ([]*trip.Trip, error)
}

type Service struct {
	parcels Parcels
	trips   Trips
	cache   *Cache
	cfg     config.MatchingConfig

	clock func() time.Time
}

func NewService(parcels Parcels, trips Trips, cache *Cache, cfg config.MatchingConfig) *Service {
	return &Service{parcels: parcels, trips: trips, cache: cache, cfg: cfg, clock: time.Now}
}

// FindTripsForParcel ranks active, soon-departing trips against a pending
// parcel. A parcel that is not pending matches nothing.
func (s *Service) FindTripsForParcel(ctx context.Context, parcelCode string) ([]Candidate, error) {
	p, err := s.parcels.GetByCode(ctx, parcelCode)
	if err != nil {
		return nil, err
	}
	if p.Status != parcel.StatusPending {
		return []Candidate{}, nil
	}

	if s.cache != nil {
		if hit, ok := s.cache.Get(ctx, "parcel:"+parcelCode); ok {
			return hit, nil
		}
	}

	now := s.clock()
	trips, err := s.trips.ListActiveDeparting(ctx, now, now.AddDate(0, 0, s.cfg.WindowDays))
	if err != nil {
		return nil, err
	}

	out := []Candidate{}
	for _, t := range trips {
		if c, ok := s.evaluate(p, t); ok {
			out = append(out, c)
		}
	}
	sortCandidates(out)

	if s.cache != nil {
		s.cache.Set(ctx, "parcel:"+parcelCode, out)
	}
	return out, nil
}

// FindParcelsForTrip is the symmetric query from a trip's perspective. A trip
// departing beyond the matching window matches nothing.
func (s *Service) FindParcelsForTrip(ctx context.Context, tripCode string) ([]Candidate, error) {
	t, err := s.trips.GetByCode(ctx, tripCode)
	if err != nil {
		return nil, err
	}
	now := s.clock()
	if t.Status != trip.StatusActive || t.SpareCapacity() == 0 {
		return []Candidate{}, nil
	}
	if t.DepartureAt.Before(now) || t.DepartureAt.After(now.AddDate(0, 0, s.cfg.WindowDays)) {
		return []Candidate{}, nil
	}

	if s.cache != nil {
		if hit, ok := s.cache.Get(ctx, "trip:"+tripCode); ok {
			return hit, nil
		}
	}

	pending, err := s.parcels.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	out := []Candidate{}
	for _, p := range pending {
		if c, ok := s.evaluate(p, t); ok {
			out = append(out, c)
		}
	}
	sortCandidates(out)

	if s.cache != nil {
		s.cache.Set(ctx, "trip:"+tripCode, out)
	}
	return out, nil
}

// evaluate applies the match predicate: both city names fuzzy-match, or both
// endpoints lie within the configured radius. The trip must have room either way.
func (s *Service) evaluate(p *parcel.Parcel, t *trip.Trip) (Candidate, bool) {
	spare := t.SpareCapacity()
	if spare == 0 {
		return Candidate{}, false
	}

	originKm := DistanceKm(p.Origin.Point, t.Origin.Point)
	destKm := DistanceKm(p.Destination.Point, t.Destination.Point)
	cityMatch := FuzzyEquals(p.Origin.City, t.Origin.City, s.cfg.CityThreshold) &&
		FuzzyEquals(p.Destination.City, t.Destination.City, s.cfg.CityThreshold)
	withinRadius := originKm <= s.cfg.RadiusKm && destKm <= s.cfg.RadiusKm

	if !cityMatch && !withinRadius {
		return Candidate{}, false
	}
	return Candidate{
		ParcelCode:    p.Code,
		TripCode:      t.Code,
		TravellerID:   string(t.TravellerID),
		Score:         Score(originKm, destKm, cityMatch, spare),
		OriginKm:      originKm,
		DestKm:        destKm,
		CityMatch:     cityMatch,
		SpareCapacity: spare,
	}, true
}

// sortCandidates orders by score descending, ties broken by trip then parcel
// code so results are deterministic.
func sortCandidates(cs []Candidate) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].Score != cs[j].Score {
			return cs[i].Score > cs[j].Score
		}
		if cs[i].TripCode != cs[j].TripCode {
			return cs[i].TripCode < cs[j].TripCode
		}
		return cs[i].ParcelCode < cs[j].ParcelCode
	})
}
