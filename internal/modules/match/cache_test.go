// README: Match cache tests against an embedded Redis.
package match

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"courier/internal/modules/parcel"
	"courier/internal/modules/trip"
)

func newTestCache(t *testing.T, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewCache(rdb, ttl), mr
}

func TestCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	want := []Candidate{
		{ParcelCode: "PKG-A", TripCode: "TRP-A", Score: 120},
		{ParcelCode: "PKG-A", TripCode: "TRP-B", Score: 95},
	}
	cache.Set(ctx, "parcel:PKG-A", want)

	got, ok := cache.Get(ctx, "parcel:PKG-A")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got) != 2 || got[0].TripCode != "TRP-A" || got[1].TripCode != "TRP-B" {
		t.Fatalf("cached candidates corrupted: %+v", got)
	}
}

func TestCacheMiss(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	if _, ok := cache.Get(context.Background(), "parcel:PKG-NOPE"); ok {
		t.Fatal("expected miss for unknown key")
	}
}

func TestCacheExpiry(t *testing.T) {
	cache, mr := newTestCache(t, time.Second)
	ctx := context.Background()

	cache.Set(ctx, "trip:TRP-A", []Candidate{{ParcelCode: "PKG-A", TripCode: "TRP-A"}})
	mr.FastForward(2 * time.Second)

	if _, ok := cache.Get(ctx, "trip:TRP-A"); ok {
		t.Fatal("expected entry to expire")
	}
}

func TestServiceUsesCache(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	parcels := parcel.NewMemoryStore()
	trips := trip.NewMemoryStore()
	svc := NewService(parcels, trips, cache, testMatchCfg)
	ctx := context.Background()

	seedParcel(t, parcels, "PKG-A", kathmandu, pokhara, parcel.StatusPending)
	seedTrip(t, trips, "TRP-A", kathmandu, pokhara, 24, 2, nil)

	first, err := svc.FindTripsForParcel(ctx, "PKG-A")
	if err != nil {
		t.Fatalf("first query: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(first))
	}

	// A trip added after the first query is invisible until the entry expires.
	seedTrip(t, trips, "TRP-B", kathmandu, pokhara, 24, 2, nil)
	second, err := svc.FindTripsForParcel(ctx, "PKG-A")
	if err != nil {
		t.Fatalf("second query: %v", err)
	}
	if len(second) != 1 {
		t.Fatalf("expected cached result of 1 candidate, got %d", len(second))
	}
}
