// README: User profile and delivery counters. Wallet balances live in the wallet module.
package user

import (
	"time"

	"courier/internal/types"
)

type User struct {
	ID              types.ID
	DisplayName     string
	Email           string
	Role            types.Role
	Verified        bool
	TotalDeliveries int
	TotalPackages   int
	CreatedAt       time.Time
}
