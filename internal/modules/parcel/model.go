// README: Parcel aggregate, status definitions, and the transition table.
package parcel

import (
	"time"

	"courier/internal/types"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusPickedUp  Status = "picked_up"
	StatusInTransit Status = "in_transit"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
	StatusDisputed  Status = "disputed"
	StatusExpired   Status = "expired"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentHeld     PaymentStatus = "held"
	PaymentReleased PaymentStatus = "released"
	PaymentRefunded PaymentStatus = "refunded"
)

type Payer string

const (
	PayerSender   Payer = "sender"
	PayerReceiver Payer = "receiver"
)

// MaxTrackingPoints bounds the tracking ring; older points are dropped first.
const MaxTrackingPoints = 100

type TrackingPoint struct {
	Point types.Point
	Note  string
	At    time.Time
}

// Parcel is a single delivery request. TravellerID and TripCode are both nil
// until a traveller accepts, then both set. DeliveryOTP is non-nil only while
// a delivery-confirmation window is open (seeded at accept, armed with an
// expiry at deliver, cleared at confirm).
type Parcel struct {
	Code            string
	SenderID        types.ID
	TravellerID     *types.ID
	TripCode        *string
	Origin          types.Endpoint
	Destination     types.Endpoint
	ReceiverName    string
	ReceiverContact string
	Fee             types.Money
	Payer           Payer
	Status          Status
	PaymentStatus   PaymentStatus
	StatusVersion   int
	Tracking        []TrackingPoint
	DeliveryOTP     *string
	OTPExpiresAt    *time.Time
	DeliveryProof   *string
	DisputeReason   *string
	CreatedAt       time.Time
	PickedUpAt      *time.Time
	DeliveredAt     *time.Time
}

type Event struct {
	ID         int64
	ParcelCode string
	FromStatus Status
	ToStatus   Status
	ActorType  string
	ActorID    *types.ID
	CreatedAt  time.Time
}

// AllowedTransitions represents the parcel state flow as code. Dispute from
// `delivered` is governed separately by the terminal-dispute setting; the
// table holds only the unconditional edges.
var AllowedTransitions = map[Status][]Status{
	StatusPending:   {StatusAccepted, StatusExpired, StatusDisputed},
	StatusAccepted:  {StatusPickedUp, StatusDisputed},
	StatusPickedUp:  {StatusInTransit, StatusDelivered, StatusDisputed},
	StatusInTransit: {StatusDelivered, StatusDisputed},
	StatusExpired:   {StatusPending},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// ActiveStatuses are the states a dispute may always be raised from.
func (p *Parcel) Active() bool {
	switch p.Status {
	case StatusPending, StatusAccepted, StatusPickedUp, StatusInTransit:
		return true
	}
	return false
}
