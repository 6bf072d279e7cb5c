// README: Wallet storage contract. Balance mutation and ledger record are one
// atomic region; a debit that would go negative fails without any visible effect.
package wallet

import (
	"context"

	"courier/internal/types"
)

type Store interface {
	Balance(ctx context.Context, userID types.ID) (int64, error)

	// CreditWithRecord adds amount to the balance and appends the record in
	// the same transactional region, returning the new balance.
	CreditWithRecord(ctx context.Context, userID types.ID, amount int64, txn *Transaction) (int64, error)

	// DebitWithRecord subtracts amount only when the balance covers it; the
	// record is written only on success. Returns ok=false (and no mutation)
	// when funds are insufficient.
	DebitWithRecord(ctx context.Context, userID types.ID, amount int64, txn *Transaction) (int64, bool, error)

	// AnnotateHoldTraveller stamps the traveller onto the original hold
	// record of a parcel when the hold is released.
	AnnotateHoldTraveller(ctx context.Context, parcelCode string, travellerID types.ID) error

	ListByUser(ctx context.Context, userID types.ID) ([]*Transaction, error)
}
