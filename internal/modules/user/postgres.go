// README: User store backed by PostgreSQL.
package user

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

func (s *PostgresStore) Get(ctx context.Context, id types.ID) (*User, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, display_name, email, role, verified, total_deliveries, total_packages, created_at
		FROM users WHERE id = $1`, string(id))

	var u User
	var uid, role string
	err := row.Scan(&uid, &u.DisplayName, &u.Email, &role, &u.Verified,
		&u.TotalDeliveries, &u.TotalPackages, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.ID = types.ID(uid)
	u.Role = types.Role(role)
	return &u, nil
}

func (s *PostgresStore) Create(ctx context.Context, u *User) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO users (id, display_name, email, role, verified, total_deliveries, total_packages, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		string(u.ID), u.DisplayName, u.Email, string(u.Role), u.Verified,
		u.TotalDeliveries, u.TotalPackages, u.CreatedAt,
	)
	return err
}

func (s *PostgresStore) IncrementDeliveryStats(ctx context.Context, travellerID, senderID types.ID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`UPDATE users SET total_deliveries = total_deliveries + 1 WHERE id = $1`,
		string(travellerID)); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE users SET total_packages = total_packages + 1 WHERE id = $1`,
		string(senderID)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
