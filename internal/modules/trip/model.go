// README: Trip aggregate and status definitions.
package trip

import (
	"time"

	"courier/internal/types"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Trip is a traveller's planned journey offering spare carrying capacity.
// AcceptedParcels never exceeds Capacity; the store enforces that as part of
// the same write that appends a parcel code.
type Trip struct {
	Code            string
	TravellerID     types.ID
	Origin          types.Endpoint
	Destination     types.Endpoint
	DepartureAt     time.Time
	Capacity        int
	Price           types.Money
	Status          Status
	AcceptedParcels []string
	CreatedAt       time.Time
}

func (t *Trip) SpareCapacity() int {
	n := t.Capacity - len(t.AcceptedParcels)
	if n < 0 {
		return 0
	}
	return n
}
