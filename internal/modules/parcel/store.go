// README: Parcel storage contract. Every status-changing method is a compare-and-set:
// the current status (and status version) is checked as part of the same write that
// changes it, and the write reports whether it won.
package parcel

import (
	"context"
	"time"

	"courier/internal/types"
)

type Store interface {
	Create(ctx context.Context, p *Parcel) error
	GetByCode(ctx context.Context, code string) (*Parcel, error)
	ListPending(ctx context.Context) ([]*Parcel, error)
	ListBySender(ctx context.Context, senderID types.ID) ([]*Parcel, error)

	// Assign moves pending → accepted, setting traveller, trip, and the
	// placeholder OTP in the same conditional write. Fails (false) unless the
	// parcel is still pending, unassigned, and at the given version.
	Assign(ctx context.Context, code string, version int, travellerID types.ID, tripCode, otp string) (bool, error)

	// UpdateStatus is the generic conditional transition; implementations set
	// the timestamp matching the target status (picked_up → PickedUpAt).
	UpdateStatus(ctx context.Context, code string, from, to Status, version int) (bool, error)

	// ArmDeliveryOTP installs a fresh delivery code, its expiry, and the
	// traveller's delivery proof without changing status. Fails unless the
	// parcel is in `from` at `version`.
	ArmDeliveryOTP(ctx context.Context, code string, from Status, version int, otp string, expiresAt time.Time, proof string) (bool, error)

	// ConfirmDelivered moves `from` → delivered, clearing the OTP and its
	// expiry and stamping DeliveredAt in the same write.
	ConfirmDelivered(ctx context.Context, code string, from Status, version int, at time.Time) (bool, error)

	// Dispute moves `from` → disputed and records the reason.
	Dispute(ctx context.Context, code string, from Status, version int, reason string) (bool, error)

	// UpdateTracking replaces the tracking ring, optionally moving status
	// (picked_up → in_transit on the first point).
	UpdateTracking(ctx context.Context, code string, from, to Status, version int, tracking []TrackingPoint) (bool, error)

	// Replace overwrites the mutable fields of a pending or expired parcel
	// and resets status to pending.
	Replace(ctx context.Context, p *Parcel, version int) (bool, error)

	// Delete removes the parcel if it is still pending or expired.
	Delete(ctx context.Context, code string) (bool, error)

	// ExpireStale bulk-transitions pending, unassigned parcels created at or
	// before the cutoff to expired, returning the parcels it transitioned.
	// The filter and the update are one conditional write, so re-running it
	// is idempotent and safe against concurrent accepts.
	ExpireStale(ctx context.Context, before time.Time) ([]*Parcel, error)

	// SetPaymentStatus conditionally advances the escrow marker.
	SetPaymentStatus(ctx context.Context, code string, from, to PaymentStatus) (bool, error)

	// CountUndelivered reports how many of the given parcels are not yet
	// delivered. Used to decide trip completion.
	CountUndelivered(ctx context.Context, codes []string) (int, error)

	AppendEvent(ctx context.Context, e *Event) error
}
