// README: Trip store backed by PostgreSQL; capacity checks ride inside conditional UPDATEs.
package trip

import (
	"context"
	"errors"
	"time"

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

const tripColumns = `
	code, traveller_id,
	origin_city, origin_address, origin_lat, origin_lng,
	dest_city, dest_address, dest_lat, dest_lng,
	departure_at, capacity, price, currency, status, accepted_parcels, created_at`

func (s *PostgresStore) Create(ctx context.Context, t *Trip) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO trips (`+tripColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		t.Code, string(t.TravellerID),
		t.Origin.City, t.Origin.Address, t.Origin.Point.Lat, t.Origin.Point.Lng,
		t.Destination.City, t.Destination.Address, t.Destination.Point.Lat, t.Destination.Point.Lng,
		t.DepartureAt, t.Capacity, t.Price.Amount, t.Price.Currency, string(t.Status),
		t.AcceptedParcels, t.CreatedAt,
	)
	return err
}

func (s *PostgresStore) GetByCode(ctx context.Context, code string) (*Trip, error) {
	row := s.db.QueryRow(ctx, `SELECT `+tripColumns+` FROM trips WHERE code = $1`, code)
	t, err := scanTrip(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

func (s *PostgresStore) ListByTraveller(ctx context.Context, travellerID types.ID) ([]*Trip, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+tripColumns+` FROM trips
		WHERE traveller_id = $1
		ORDER BY departure_at`, string(travellerID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTrips(rows)
}

func (s *PostgresStore) ListActiveDeparting(ctx context.Context, from, to time.Time) ([]*Trip, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+tripColumns+` FROM trips
		WHERE status = 'active' AND departure_at BETWEEN $1 AND $2
		ORDER BY departure_at`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTrips(rows)
}

func (s *PostgresStore) ReserveSlot(ctx context.Context, code, parcelCode string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE trips
		SET accepted_parcels = array_append(accepted_parcels, $2)
		WHERE code = $1
		  AND status = 'active'
		  AND cardinality(accepted_parcels) < capacity
		  AND NOT ($2 = ANY (accepted_parcels))`,
		code, parcelCode,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) ReleaseSlot(ctx context.Context, code, parcelCode string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE trips
		SET accepted_parcels = array_remove(accepted_parcels, $2)
		WHERE code = $1`,
		code, parcelCode,
	)
	return err
}

func (s *PostgresStore) SetStatus(ctx context.Context, code string, from, to Status) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE trips SET status = $1 WHERE code = $2 AND status = $3`,
		string(to), code, string(from),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row rowScanner) (*Trip, error) {
	var t Trip
	var travellerID string
	err := row.Scan(
		&t.Code, &travellerID,
		&t.Origin.City, &t.Origin.Address, &t.Origin.Point.Lat, &t.Origin.Point.Lng,
		&t.Destination.City, &t.Destination.Address, &t.Destination.Point.Lat, &t.Destination.Point.Lng,
		&t.DepartureAt, &t.Capacity, &t.Price.Amount, &t.Price.Currency, &t.Status,
		&t.AcceptedParcels, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.TravellerID = types.ID(travellerID)
	return &t, nil
}

func scanTrips(rows pgx.Rows) ([]*Trip, error) {
	var out []*Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
