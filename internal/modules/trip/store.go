// README: Trip storage contract; implementations must make slot and status writes conditional.
package trip

import (
	"context"
	"time"

	"courier/internal/types"
)

type Store interface {
	Create(ctx context.Context, t *Trip) error
	GetByCode(ctx context.Context, code string) (*Trip, error)
	ListByTraveller(ctx context.Context, travellerID types.ID) ([]*Trip, error)

	// ListActiveDeparting returns active trips with a departure inside [from, to].
	ListActiveDeparting(ctx context.Context, from, to time.Time) ([]*Trip, error)

	// ReserveSlot appends parcelCode to the trip's accepted list only if the
	// trip is active, has spare capacity, and does not already hold the code.
	// Returns false when any of those checks fails under the same write.
	ReserveSlot(ctx context.Context, code, parcelCode string) (bool, error)

	// ReleaseSlot removes parcelCode from the accepted list (compensation for
	// a failed parcel assignment).
	ReleaseSlot(ctx context.Context, code, parcelCode string) error

	// SetStatus moves the trip from one status to another as a single
	// conditional write. Returns false when the trip was not in `from`.
	SetStatus(ctx context.Context, code string, from, to Status) (bool, error)
}
