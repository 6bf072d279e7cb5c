// README: Persistence contract for user profiles and delivery counters.
package user

import (
	"context"
	"errors"

	"courier/internal/types"
)

var ErrNotFound = errors.New("user not found")

type Store interface {
	Get(ctx context.Context, id types.ID) (*User, error)
	Create(ctx context.Context, u *User) error

	// IncrementDeliveryStats bumps the traveller's completed-delivery counter
	// and the sender's sent-package counter after a confirmed delivery.
	IncrementDeliveryStats(ctx context.Context, travellerID, senderID types.ID) error
}
