// README: Concurrency tests for the accept path (run with -race).
package parcel

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"courier/internal/modules/trip"
	"courier/internal/types"
)

func TestConcurrentAcceptSameParcel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.mustCreateParcel(t)

	const travellers = 8
	actors := make([]types.Actor, travellers)
	tripCodes := make([]string, travellers)
	for i := range actors {
		actors[i] = types.Actor{
			ID:       types.ID(fmt.Sprintf("trav-%d", i)),
			Role:     types.RoleTraveller,
			Verified: true,
		}
		tr := &trip.Trip{
			Code:            fmt.Sprintf("TRP-RACE%d", i),
			TravellerID:     actors[i].ID,
			Origin:          types.Endpoint{City: "Kathmandu"},
			Destination:     types.Endpoint{City: "Pokhara"},
			DepartureAt:     time.Now().Add(24 * time.Hour),
			Capacity:        1,
			Status:          trip.StatusActive,
			AcceptedParcels: []string{},
		}
		if err := env.trips.Create(ctx, tr); err != nil {
			t.Fatalf("create trip %d: %v", i, err)
		}
		tripCodes[i] = tr.Code
	}

	errs := make(chan error, travellers)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < travellers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs <- env.svc.Accept(ctx, actors[i], p.Code, tripCodes[i])
		}(i)
	}
	close(start)
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if err != ErrConflict {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly 1 successful accept, got %d", success)
	}

	// Every losing trip got its reserved slot back.
	winnerParcel, err := env.store.GetByCode(ctx, p.Code)
	if err != nil {
		t.Fatalf("get parcel: %v", err)
	}
	for _, code := range tripCodes {
		tr, err := env.trips.GetByCode(ctx, code)
		if err != nil {
			t.Fatalf("get trip %s: %v", code, err)
		}
		if winnerParcel.TripCode != nil && *winnerParcel.TripCode == code {
			if len(tr.AcceptedParcels) != 1 {
				t.Fatalf("winning trip %s holds %d parcels, want 1", code, len(tr.AcceptedParcels))
			}
			continue
		}
		if len(tr.AcceptedParcels) != 0 {
			t.Fatalf("losing trip %s still holds a slot: %v", code, tr.AcceptedParcels)
		}
	}
}

func TestConcurrentConfirmSingleWinner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.mustCreateParcel(t)
	tr := env.mustCreateTrip(t, 1)
	if err := env.svc.Accept(ctx, travellerActor, p.Code, tr.Code); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := env.svc.Pickup(ctx, travellerActor, p.Code); err != nil {
		t.Fatalf("pickup: %v", err)
	}
	if err := env.svc.Deliver(ctx, travellerActor, p.Code, ""); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	otp := env.deliverOTP(t, p.Code)

	const confirms = 4
	errs := make(chan error, confirms)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < confirms; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			errs <- env.svc.Confirm(ctx, senderActor, p.Code, otp)
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if err != ErrConflict && err != ErrOTPMissing {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly 1 successful confirm, got %d", success)
	}
	env.assertStatus(t, p.Code, StatusDelivered)
}
