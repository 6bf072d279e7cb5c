// README: Common identifier and geographic value objects used across modules.
package types

// ID identifies a user, parcel, or trip.
type ID string

// Point is a WGS84 coordinate pair in decimal degrees.
type Point struct {
	Lat float64
	Lng float64
}

// Endpoint is one end of a parcel route or a trip leg.
type Endpoint struct {
	City    string
	Address string
	Point   Point
}

// Role of an authenticated actor.
type Role string

const (
	RoleSender    Role = "sender"
	RoleTraveller Role = "traveller"
)

// Actor is the authenticated identity attached to every mutating call.
// The HTTP layer builds it from upstream headers; services trust it.
type Actor struct {
	ID       ID
	Role     Role
	Verified bool
}
