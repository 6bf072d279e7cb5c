// README: Escrow service: top-up, hold, release, refund. Each operation fails with a
// distinct error when its precondition is unmet, and never partially applies.
package wallet

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"courier/internal/modules/parcel"
	"courier/internal/types"
)

var (
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInsufficientFunds = errors.New("insufficient wallet balance")
	ErrWrongPayer        = errors.New("parcel is not payable by its sender")
	ErrForbidden         = errors.New("actor is not the paying party")
	ErrWrongPaymentState = errors.New("parcel payment is not in the required state")
	ErrNoTraveller       = errors.New("parcel has no traveller assigned")
	ErrNoWallet          = errors.New("wallet not found")
)

// Parcels is the slice of the parcel store the ledger needs: lookups plus the
// conditional payment-status marker.
type Parcels interface {
	GetByCode(ctx context.Context, code string) (*parcel.Parcel, error)
	SetPaymentStatus(ctx context.Context, code string, from, to parcel.PaymentStatus) (bool, error)
}

type Service struct {
	store   Store
	parcels Parcels

	clock func() time.Time
}

func NewService(store Store, parcels Parcels) *Service {
	return &Service{store: store, parcels: parcels, clock: time.Now}
}

// TopUp credits the actor's wallet unconditionally.
func (s *Service) TopUp(ctx context.Context, actor types.Actor, amount int64, currency string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return s.store.CreditWithRecord(ctx, actor.ID, amount, s.newTxn(nil, actor.ID, nil, amount, currency, TxTopUp))
}

// Hold debits the sender's wallet for the parcel fee and marks the payment
// held. The payment-status compare-and-set wins the race; a debit that then
// finds insufficient funds reverts the marker and leaves the balance untouched.
func (s *Service) Hold(ctx context.Context, actor types.Actor, parcelCode string) (int64, error) {
	p, err := s.parcels.GetByCode(ctx, parcelCode)
	if err != nil {
		return 0, err
	}
	if p.Payer != parcel.PayerSender {
		return 0, ErrWrongPayer
	}
	if actor.ID != p.SenderID {
		return 0, ErrForbidden
	}

	ok, err := s.parcels.SetPaymentStatus(ctx, parcelCode, parcel.PaymentPending, parcel.PaymentHeld)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrWrongPaymentState
	}

	txn := s.newTxn(&parcelCode, p.SenderID, nil, p.Fee.Amount, p.Fee.Currency, TxHold)
	balance, debited, err := s.store.DebitWithRecord(ctx, actor.ID, p.Fee.Amount, txn)
	if err != nil {
		_, _ = s.parcels.SetPaymentStatus(ctx, parcelCode, parcel.PaymentHeld, parcel.PaymentPending)
		return 0, err
	}
	if !debited {
		_, _ = s.parcels.SetPaymentStatus(ctx, parcelCode, parcel.PaymentHeld, parcel.PaymentPending)
		return balance, ErrInsufficientFunds
	}
	return balance, nil
}

// Release credits the held fee to the assigned traveller. The held→released
// compare-and-set guarantees a hold is settled exactly once, so a refund after
// a release (or a second release) fails with ErrWrongPaymentState. A credit
// that fails reverts the marker to held so the settlement can be retried.
func (s *Service) Release(ctx context.Context, parcelCode string) error {
	p, err := s.parcels.GetByCode(ctx, parcelCode)
	if err != nil {
		return err
	}
	if p.TravellerID == nil {
		return ErrNoTraveller
	}
	if p.PaymentStatus != parcel.PaymentHeld {
		return ErrWrongPaymentState
	}

	ok, err := s.parcels.SetPaymentStatus(ctx, parcelCode, parcel.PaymentHeld, parcel.PaymentReleased)
	if err != nil {
		return err
	}
	if !ok {
		return ErrWrongPaymentState
	}

	traveller := *p.TravellerID
	txn := s.newTxn(&parcelCode, p.SenderID, &traveller, p.Fee.Amount, p.Fee.Currency, TxRelease)
	if _, err := s.store.CreditWithRecord(ctx, traveller, p.Fee.Amount, txn); err != nil {
		_, _ = s.parcels.SetPaymentStatus(ctx, parcelCode, parcel.PaymentReleased, parcel.PaymentHeld)
		return err
	}
	if err := s.store.AnnotateHoldTraveller(ctx, parcelCode, traveller); err != nil {
		log.Printf("wallet: parcel %s: hold annotation failed: %v", parcelCode, err)
	}
	return nil
}

// Refund returns the held fee to the sender.
func (s *Service) Refund(ctx context.Context, parcelCode string) error {
	p, err := s.parcels.GetByCode(ctx, parcelCode)
	if err != nil {
		return err
	}
	if p.PaymentStatus != parcel.PaymentHeld {
		return ErrWrongPaymentState
	}

	ok, err := s.parcels.SetPaymentStatus(ctx, parcelCode, parcel.PaymentHeld, parcel.PaymentRefunded)
	if err != nil {
		return err
	}
	if !ok {
		return ErrWrongPaymentState
	}

	txn := s.newTxn(&parcelCode, p.SenderID, p.TravellerID, p.Fee.Amount, p.Fee.Currency, TxRefund)
	if _, err := s.store.CreditWithRecord(ctx, p.SenderID, p.Fee.Amount, txn); err != nil {
		_, _ = s.parcels.SetPaymentStatus(ctx, parcelCode, parcel.PaymentRefunded, parcel.PaymentHeld)
		return err
	}
	return nil
}

func (s *Service) Balance(ctx context.Context, actor types.Actor) (int64, error) {
	return s.store.Balance(ctx, actor.ID)
}

func (s *Service) Transactions(ctx context.Context, actor types.Actor) ([]*Transaction, error) {
	return s.store.ListByUser(ctx, actor.ID)
}

func (s *Service) newTxn(parcelCode *string, sender types.ID, traveller *types.ID, amount int64, currency string, kind TxType) *Transaction {
	now := s.clock()
	return &Transaction{
		ID:          uuid.NewString(),
		ParcelCode:  parcelCode,
		SenderID:    sender,
		TravellerID: traveller,
		Amount:      amount,
		Currency:    currency,
		Type:        kind,
		Status:      TxCompleted,
		CreatedAt:   now,
		CompletedAt: &now,
	}
}
