// README: Haversine distance tests.
package match

import (
	"math"
	"testing"

	"courier/internal/types"
)

func TestDistanceKmZero(t *testing.T) {
	p := types.Point{Lat: 27.7172, Lng: 85.3240}
	if d := DistanceKm(p, p); d != 0 {
		t.Fatalf("distance to self = %v, want 0", d)
	}
}

func TestDistanceKmSymmetric(t *testing.T) {
	a := types.Point{Lat: 27.7172, Lng: 85.3240} // Kathmandu
	b := types.Point{Lat: 28.2096, Lng: 83.9856} // Pokhara
	if d1, d2 := DistanceKm(a, b), DistanceKm(b, a); math.Abs(d1-d2) > 1e-9 {
		t.Fatalf("asymmetric distance: %v vs %v", d1, d2)
	}
}

func TestDistanceKmKnown(t *testing.T) {
	a := types.Point{Lat: 27.7172, Lng: 85.3240} // Kathmandu
	b := types.Point{Lat: 28.2096, Lng: 83.9856} // Pokhara
	d := DistanceKm(a, b)
	// Great-circle distance is roughly 145 km.
	if d < 130 || d > 160 {
		t.Fatalf("Kathmandu-Pokhara distance = %v km, want ~145", d)
	}
}
