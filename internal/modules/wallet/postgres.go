// README: Wallet store backed by PostgreSQL. Each balance mutation and its ledger
// record share a pgx transaction; the insufficient-funds check rides inside the UPDATE.
package wallet

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"courier/internal/types"
)

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Balance(ctx context.Context, userID types.ID) (int64, error) {
	row := s.db.QueryRow(ctx, `SELECT balance FROM users WHERE id = $1`, string(userID))
	var balance int64
	err := row.Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNoWallet
	}
	return balance, err
}

func (s *PostgresStore) CreditWithRecord(ctx context.Context, userID types.ID, amount int64, txn *Transaction) (int64, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		UPDATE users SET balance = balance + $1 WHERE id = $2
		RETURNING balance`, amount, string(userID))
	var balance int64
	if err := row.Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNoWallet
		}
		return 0, err
	}
	if err := insertTransaction(ctx, tx, txn); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return balance, nil
}

func (s *PostgresStore) DebitWithRecord(ctx context.Context, userID types.ID, amount int64, txn *Transaction) (int64, bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		UPDATE users SET balance = balance - $1
		WHERE id = $2 AND balance >= $1
		RETURNING balance`, amount, string(userID))
	var balance int64
	if err := row.Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	if err := insertTransaction(ctx, tx, txn); err != nil {
		return 0, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, false, err
	}
	return balance, true, nil
}

func (s *PostgresStore) AnnotateHoldTraveller(ctx context.Context, parcelCode string, travellerID types.ID) error {
	_, err := s.db.Exec(ctx, `
		UPDATE transactions SET traveller_id = $1
		WHERE parcel_code = $2 AND type = 'hold'`,
		string(travellerID), parcelCode,
	)
	return err
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID types.ID) ([]*Transaction, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, parcel_code, sender_id, traveller_id, amount, currency, type, status, created_at, completed_at
		FROM transactions
		WHERE sender_id = $1 OR traveller_id = $1
		ORDER BY created_at DESC`, string(userID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Transaction
	for rows.Next() {
		var t Transaction
		var senderID string
		var travellerID *string
		var txType, txStatus string
		if err := rows.Scan(&t.ID, &t.ParcelCode, &senderID, &travellerID,
			&t.Amount, &t.Currency, &txType, &txStatus, &t.CreatedAt, &t.CompletedAt); err != nil {
			return nil, err
		}
		t.SenderID = types.ID(senderID)
		if travellerID != nil {
			id := types.ID(*travellerID)
			t.TravellerID = &id
		}
		t.Type = TxType(txType)
		t.Status = TxStatus(txStatus)
		out = append(out, &t)
	}
	return out, rows.Err()
}

func insertTransaction(ctx context.Context, tx pgx.Tx, t *Transaction) error {
	var travellerID *string
	if t.TravellerID != nil {
		v := string(*t.TravellerID)
		travellerID = &v
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO transactions (id, parcel_code, sender_id, traveller_id, amount, currency, type, status, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.ParcelCode, string(t.SenderID), travellerID,
		t.Amount, t.Currency, string(t.Type), string(t.Status), t.CreatedAt, t.CompletedAt,
	)
	return err
}
