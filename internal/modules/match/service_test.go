// README: Matching engine tests over in-memory stores.
package match

import (
	"context"
	"testing"
	"time"

	"courier/internal/config"
	"courier/internal/modules/parcel"
	"courier/internal/modules/trip"
	"courier/internal/types"
)

var testMatchCfg = config.MatchingConfig{
	WindowDays:    3,
	RadiusKm:      50,
	CityThreshold: 0.6,
}

var (
	kathmandu = types.Endpoint{City: "Kathmandu", Point: types.Point{Lat: 27.7172, Lng: 85.3240}}
	pokhara   = types.Endpoint{City: "Pokhara", Point: types.Point{Lat: 28.2096, Lng: 83.9856}}
	london    = types.Endpoint{City: "London", Point: types.Point{Lat: 51.5072, Lng: -0.1276}}
)

func newMatchEnv(t *testing.T) (*Service, *parcel.MemoryStore, *trip.MemoryStore) {
	t.Helper()
	parcels := parcel.NewMemoryStore()
	trips := trip.NewMemoryStore()
	svc := NewService(parcels, trips, nil, testMatchCfg)
	return svc, parcels, trips
}

func seedParcel(t *testing.T, store *parcel.MemoryStore, code string, origin, dest types.Endpoint, status parcel.Status) {
	t.Helper()
	err := store.Create(context.Background(), &parcel.Parcel{
		Code:          code,
		SenderID:      "sender-1",
		Origin:        origin,
		Destination:   dest,
		ReceiverName:  "R",
		Status:        status,
		PaymentStatus: parcel.PaymentPending,
		CreatedAt:     time.Now(),
	})
	if err != nil {
		t.Fatalf("seed parcel %s: %v", code, err)
	}
}

func seedTrip(t *testing.T, store *trip.MemoryStore, code string, origin, dest types.Endpoint, departInH int, capacity int, accepted []string) {
	t.Helper()
	err := store.Create(context.Background(), &trip.Trip{
		Code:            code,
		TravellerID:     "traveller-1",
		Origin:          origin,
		Destination:     dest,
		DepartureAt:     time.Now().Add(time.Duration(departInH) * time.Hour),
		Capacity:        capacity,
		Status:          trip.StatusActive,
		AcceptedParcels: accepted,
		CreatedAt:       time.Now(),
	})
	if err != nil {
		t.Fatalf("seed trip %s: %v", code, err)
	}
}

func TestFindTripsForParcelCityMatch(t *testing.T) {
	svc, parcels, trips := newMatchEnv(t)
	ctx := context.Background()

	seedParcel(t, parcels, "PKG-A", kathmandu, pokhara, parcel.StatusPending)
	seedTrip(t, trips, "TRP-A", kathmandu, pokhara, 24, 2, nil)
	seedTrip(t, trips, "TRP-B", london, pokhara, 24, 2, nil) // origin too far, no city match

	got, err := svc.FindTripsForParcel(ctx, "PKG-A")
	if err != nil {
		t.Fatalf("find trips: %v", err)
	}
	if len(got) != 1 || got[0].TripCode != "TRP-A" {
		t.Fatalf("expected single TRP-A candidate, got %+v", got)
	}
	if !got[0].CityMatch {
		t.Fatal("expected city match on identical cities")
	}
}

func TestFindTripsForParcelRadiusFallback(t *testing.T) {
	svc, parcels, trips := newMatchEnv(t)
	ctx := context.Background()

	// City names disagree but both endpoints are nearby.
	nearOrigin := types.Endpoint{City: "Lalitpur", Point: types.Point{Lat: 27.6644, Lng: 85.3188}}
	nearDest := types.Endpoint{City: "Lekhnath", Point: types.Point{Lat: 28.2000, Lng: 84.0500}}
	seedParcel(t, parcels, "PKG-A", kathmandu, pokhara, parcel.StatusPending)
	seedTrip(t, trips, "TRP-A", nearOrigin, nearDest, 24, 1, nil)

	got, err := svc.FindTripsForParcel(ctx, "PKG-A")
	if err != nil {
		t.Fatalf("find trips: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected radius fallback to match, got %+v", got)
	}
	if got[0].CityMatch {
		t.Fatal("different city names must not report a city match")
	}
}

func TestFindTripsForParcelNonPending(t *testing.T) {
	svc, parcels, trips := newMatchEnv(t)
	ctx := context.Background()

	seedParcel(t, parcels, "PKG-A", kathmandu, pokhara, parcel.StatusDelivered)
	seedTrip(t, trips, "TRP-A", kathmandu, pokhara, 24, 2, nil)

	got, err := svc.FindTripsForParcel(ctx, "PKG-A")
	if err != nil {
		t.Fatalf("find trips: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("non-pending parcel must match nothing, got %+v", got)
	}
}

func TestFindTripsForParcelSkipsFullAndDistantTrips(t *testing.T) {
	svc, parcels, trips := newMatchEnv(t)
	ctx := context.Background()

	seedParcel(t, parcels, "PKG-A", kathmandu, pokhara, parcel.StatusPending)
	seedTrip(t, trips, "TRP-FULL", kathmandu, pokhara, 24, 1, []string{"PKG-X"})
	seedTrip(t, trips, "TRP-LATE", kathmandu, pokhara, 24*10, 2, nil) // outside window
	seedTrip(t, trips, "TRP-OK", kathmandu, pokhara, 24, 2, nil)

	got, err := svc.FindTripsForParcel(ctx, "PKG-A")
	if err != nil {
		t.Fatalf("find trips: %v", err)
	}
	if len(got) != 1 || got[0].TripCode != "TRP-OK" {
		t.Fatalf("expected only TRP-OK, got %+v", got)
	}
}

func TestFindTripsForParcelOrdering(t *testing.T) {
	svc, parcels, trips := newMatchEnv(t)
	ctx := context.Background()

	seedParcel(t, parcels, "PKG-A", kathmandu, pokhara, parcel.StatusPending)
	// More spare capacity scores higher; same route otherwise.
	seedTrip(t, trips, "TRP-SMALL", kathmandu, pokhara, 24, 1, nil)
	seedTrip(t, trips, "TRP-BIG", kathmandu, pokhara, 24, 5, nil)

	got, err := svc.FindTripsForParcel(ctx, "PKG-A")
	if err != nil {
		t.Fatalf("find trips: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].TripCode != "TRP-BIG" || got[1].TripCode != "TRP-SMALL" {
		t.Fatalf("expected TRP-BIG first, got %+v", got)
	}
	if got[0].Score <= got[1].Score {
		t.Fatalf("scores not descending: %v then %v", got[0].Score, got[1].Score)
	}
}

func TestFindParcelsForTrip(t *testing.T) {
	svc, parcels, trips := newMatchEnv(t)
	ctx := context.Background()

	seedTrip(t, trips, "TRP-A", kathmandu, pokhara, 24, 2, nil)
	seedParcel(t, parcels, "PKG-A", kathmandu, pokhara, parcel.StatusPending)
	seedParcel(t, parcels, "PKG-B", london, pokhara, parcel.StatusPending)
	seedParcel(t, parcels, "PKG-C", kathmandu, pokhara, parcel.StatusAccepted)

	got, err := svc.FindParcelsForTrip(ctx, "TRP-A")
	if err != nil {
		t.Fatalf("find parcels: %v", err)
	}
	if len(got) != 1 || got[0].ParcelCode != "PKG-A" {
		t.Fatalf("expected only PKG-A, got %+v", got)
	}
}

func TestFindParcelsForTripOutsideWindow(t *testing.T) {
	svc, parcels, trips := newMatchEnv(t)
	ctx := context.Background()

	seedTrip(t, trips, "TRP-A", kathmandu, pokhara, 24*10, 2, nil)
	seedParcel(t, parcels, "PKG-A", kathmandu, pokhara, parcel.StatusPending)

	got, err := svc.FindParcelsForTrip(ctx, "TRP-A")
	if err != nil {
		t.Fatalf("find parcels: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("trip outside the matching window must match nothing, got %+v", got)
	}
}

func TestScoreFloor(t *testing.T) {
	if s := Score(500, 500, false, 1); s != 0 {
		t.Fatalf("score should floor at 0, got %v", s)
	}
	if s := Score(0, 0, true, 3); s != 135 {
		t.Fatalf("perfect-route score = %v, want 135", s)
	}
}
