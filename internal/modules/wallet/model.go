// README: Escrow ledger entries. Append-only; balances change only together with a record.
package wallet

import (
	"time"

	"courier/internal/types"
)

type TxType string

const (
	TxTopUp   TxType = "topup"
	TxHold    TxType = "hold"
	TxRelease TxType = "release"
	TxRefund  TxType = "refund"
)

type TxStatus string

const (
	TxPending   TxStatus = "pending"
	TxCompleted TxStatus = "completed"
	TxFailed    TxStatus = "failed"
)

// Transaction is an immutable ledger record. ParcelCode is nil for top-ups;
// TravellerID is nil until a hold is released to a traveller.
type Transaction struct {
	ID          string
	ParcelCode  *string
	SenderID    types.ID
	TravellerID *types.ID
	Amount      int64
	Currency    string
	Type        TxType
	Status      TxStatus
	CreatedAt   time.Time
	CompletedAt *time.Time
}
