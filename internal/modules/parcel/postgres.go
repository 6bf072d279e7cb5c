// README: Parcel store backed by PostgreSQL. Guards ride inside conditional UPDATEs
// (status + status_version), mirroring the document-store compare-and-set model.
package parcel

import (
	"context"
	"encoding/json"
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

const parcelColumns = `
	code, sender_id, traveller_id, trip_code,
	origin_city, origin_address, origin_lat, origin_lng,
	dest_city, dest_address, dest_lat, dest_lng,
	receiver_name, receiver_contact,
	fee, currency, payer, status, payment_status, status_version,
	tracking, delivery_otp, otp_expires_at, delivery_proof, dispute_reason,
	created_at, picked_up_at, delivered_at`

func (s *PostgresStore) Create(ctx context.Context, p *Parcel) error {
	tracking, err := json.Marshal(p.Tracking)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO parcels (`+parcelColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)`,
		p.Code, string(p.SenderID), idPtr(p.TravellerID), p.TripCode,
		p.Origin.City, p.Origin.Address, p.Origin.Point.Lat, p.Origin.Point.Lng,
		p.Destination.City, p.Destination.Address, p.Destination.Point.Lat, p.Destination.Point.Lng,
		p.ReceiverName, p.ReceiverContact,
		p.Fee.Amount, p.Fee.Currency, string(p.Payer), string(p.Status), string(p.PaymentStatus), p.StatusVersion,
		tracking, p.DeliveryOTP, p.OTPExpiresAt, p.DeliveryProof, p.DisputeReason,
		p.CreatedAt, p.PickedUpAt, p.DeliveredAt,
	)
	return err
}

func (s *PostgresStore) GetByCode(ctx context.Context, code string) (*Parcel, error) {
	row := s.db.QueryRow(ctx, `SELECT `+parcelColumns+` FROM parcels WHERE code = $1`, code)
	p, err := scanParcel(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (s *PostgresStore) ListPending(ctx context.Context) ([]*Parcel, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+parcelColumns+` FROM parcels
		WHERE status = 'pending'
		ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanParcels(rows)
}

func (s *PostgresStore) ListBySender(ctx context.Context, senderID types.ID) ([]*Parcel, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+parcelColumns+` FROM parcels
		WHERE sender_id = $1
		ORDER BY created_at DESC`, string(senderID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanParcels(rows)
}

func (s *PostgresStore) Assign(ctx context.Context, code string, version int, travellerID types.ID, tripCode, otp string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE parcels
		SET status = 'accepted',
		    status_version = status_version + 1,
		    traveller_id = $2,
		    trip_code = $3,
		    delivery_otp = $4
		WHERE code = $1
		  AND status = 'pending'
		  AND traveller_id IS NULL
		  AND status_version = $5`,
		code, string(travellerID), tripCode, otp, version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, code string, from, to Status, version int) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE parcels
		SET status = $1,
		    status_version = status_version + 1,
		    picked_up_at = CASE WHEN $1 = 'picked_up' THEN NOW() ELSE picked_up_at END
		WHERE code = $2 AND status = $3 AND status_version = $4`,
		string(to), code, string(from), version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) ArmDeliveryOTP(ctx context.Context, code string, from Status, version int, otp string, expiresAt time.Time, proof string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE parcels
		SET delivery_otp = $1,
		    otp_expires_at = $2,
		    delivery_proof = NULLIF($3, ''),
		    status_version = status_version + 1
		WHERE code = $4 AND status = $5 AND status_version = $6`,
		otp, expiresAt, proof, code, string(from), version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) ConfirmDelivered(ctx context.Context, code string, from Status, version int, at time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE parcels
		SET status = 'delivered',
		    status_version = status_version + 1,
		    delivery_otp = NULL,
		    otp_expires_at = NULL,
		    delivered_at = $1
		WHERE code = $2 AND status = $3 AND status_version = $4`,
		at, code, string(from), version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) Dispute(ctx context.Context, code string, from Status, version int, reason string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE parcels
		SET status = 'disputed',
		    status_version = status_version + 1,
		    dispute_reason = $1
		WHERE code = $2 AND status = $3 AND status_version = $4`,
		reason, code, string(from), version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) UpdateTracking(ctx context.Context, code string, from, to Status, version int, tracking []TrackingPoint) (bool, error) {
	buf, err := json.Marshal(tracking)
	if err != nil {
		return false, err
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE parcels
		SET tracking = $1,
		    status = $2,
		    status_version = status_version + 1
		WHERE code = $3 AND status = $4 AND status_version = $5`,
		buf, string(to), code, string(from), version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) Replace(ctx context.Context, p *Parcel, version int) (bool, error) {
	tracking, err := json.Marshal(p.Tracking)
	if err != nil {
		return false, err
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE parcels
		SET origin_city = $1, origin_address = $2, origin_lat = $3, origin_lng = $4,
		    dest_city = $5, dest_address = $6, dest_lat = $7, dest_lng = $8,
		    receiver_name = $9, receiver_contact = $10,
		    fee = $11, currency = $12, payer = $13,
		    tracking = $14,
		    status = 'pending',
		    status_version = status_version + 1
		WHERE code = $15
		  AND status IN ('pending', 'expired')
		  AND status_version = $16`,
		p.Origin.City, p.Origin.Address, p.Origin.Point.Lat, p.Origin.Point.Lng,
		p.Destination.City, p.Destination.Address, p.Destination.Point.Lat, p.Destination.Point.Lng,
		p.ReceiverName, p.ReceiverContact,
		p.Fee.Amount, p.Fee.Currency, string(p.Payer),
		tracking,
		p.Code, version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) Delete(ctx context.Context, code string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM parcels WHERE code = $1 AND status IN ('pending', 'expired')`, code)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) ExpireStale(ctx context.Context, before time.Time) ([]*Parcel, error) {
	rows, err := s.db.Query(ctx, `
		UPDATE parcels
		SET status = 'expired',
		    status_version = status_version + 1
		WHERE status = 'pending'
		  AND traveller_id IS NULL
		  AND created_at <= $1
		RETURNING `+parcelColumns, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanParcels(rows)
}

func (s *PostgresStore) SetPaymentStatus(ctx context.Context, code string, from, to PaymentStatus) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE parcels SET payment_status = $1
		WHERE code = $2 AND payment_status = $3`,
		string(to), code, string(from),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) CountUndelivered(ctx context.Context, codes []string) (int, error) {
	if len(codes) == 0 {
		return 0, nil
	}
	row := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM parcels
		WHERE code = ANY($1) AND status <> 'delivered'`, codes)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *PostgresStore) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO parcel_state_events (parcel_code, from_status, to_status, actor_type, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ParcelCode, string(e.FromStatus), string(e.ToStatus), e.ActorType, idPtr(e.ActorID), e.CreatedAt,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanParcel(row rowScanner) (*Parcel, error) {
	var p Parcel
	var senderID, payer, status, payStatus string
	var travellerID *string
	var tracking []byte
	err := row.Scan(
		&p.Code, &senderID, &travellerID, &p.TripCode,
		&p.Origin.City, &p.Origin.Address, &p.Origin.Point.Lat, &p.Origin.Point.Lng,
		&p.Destination.City, &p.Destination.Address, &p.Destination.Point.Lat, &p.Destination.Point.Lng,
		&p.ReceiverName, &p.ReceiverContact,
		&p.Fee.Amount, &p.Fee.Currency, &payer, &status, &payStatus, &p.StatusVersion,
		&tracking, &p.DeliveryOTP, &p.OTPExpiresAt, &p.DeliveryProof, &p.DisputeReason,
		&p.CreatedAt, &p.PickedUpAt, &p.DeliveredAt,
	)
	if err != nil {
		return nil, err
	}
	p.SenderID = types.ID(senderID)
	if travellerID != nil {
		id := types.ID(*travellerID)
		p.TravellerID = &id
	}
	p.Payer = Payer(payer)
	p.Status = Status(status)
	p.PaymentStatus = PaymentStatus(payStatus)
	if len(tracking) > 0 {
		if err := json.Unmarshal(tracking, &p.Tracking); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

func scanParcels(rows pgx.Rows) ([]*Parcel, error) {
	var out []*Parcel
	for rows.Next() {
		p, err := scanParcel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func idPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
