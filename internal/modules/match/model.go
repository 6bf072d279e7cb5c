// README: Match candidates and the composite score.
package match

import "math"

// Candidate is one ranked pairing of a parcel and a trip.
type Candidate struct {
	ParcelCode    string  `json:"parcel_code"`
	TripCode      string  `json:"trip_code"`
	TravellerID   string  `json:"traveller_id"`
	Score         float64 `json:"score"`
	OriginKm      float64 `json:"origin_km"`
	DestKm        float64 `json:"dest_km"`
	CityMatch     bool    `json:"city_match"`
	SpareCapacity int     `json:"spare_capacity"`
}

// Score favours close endpoints, rewarded city-name agreement, and spare
// capacity; it never goes below zero.
func Score(originKm, destKm float64, cityMatch bool, spareCapacity int) float64 {
	s := 100 - 2*originKm - 2*destKm + 5*float64(spareCapacity)
	if cityMatch {
		s += 20
	}
	return math.Max(0, s)
}
