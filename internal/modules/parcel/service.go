// README: Parcel service; lifecycle transitions, OTP-gated delivery confirmation,
// and the expiration sweep. Every guard is enforced by a conditional store write.
package parcel

import (
	"context"
	"crypto/rand"
	"errors"
	"log"
	"time"

	"courier/internal/config"
	"courier/internal/modules/trip"
	"courier/internal/modules/user"
	"courier/internal/types"
)

var (
	ErrNotFound    = errors.New("parcel not found")
	ErrBadRequest  = errors.New("bad parcel request")
	ErrForbidden   = errors.New("actor not permitted for this parcel")
	ErrConflict    = errors.New("parcel state conflict")
	ErrTripClosed  = errors.New("trip is not active")
	ErrTripFull    = errors.New("trip has no spare capacity")
	ErrOTPMissing  = errors.New("no delivery confirmation code is pending")
	ErrOTPExpired  = errors.New("delivery confirmation code has expired")
	ErrOTPMismatch = errors.New("delivery confirmation code does not match")
)

// Trips is the slice of the trip store the parcel lifecycle needs.
type Trips interface {
	GetByCode(ctx context.Context, code string) (*trip.Trip, error)
	ReserveSlot(ctx context.Context, code, parcelCode string) (bool, error)
	ReleaseSlot(ctx context.Context, code, parcelCode string) error
	SetStatus(ctx context.Context, code string, from, to trip.Status) (bool, error)
}

// Escrow releases held funds once delivery is confirmed.
type Escrow interface {
	Release(ctx context.Context, parcelCode string) error
}

// Users provides profile lookups and delivery counters.
type Users interface {
	Get(ctx context.Context, id types.ID) (*user.User, error)
	IncrementDeliveryStats(ctx context.Context, travellerID, senderID types.ID) error
}

// Notifier enqueues a best-effort notification; it never blocks or fails the caller.
type Notifier interface {
	Notify(userIDs []types.ID, title, message, category string, meta map[string]string)
}

// OTPMailer sends the delivery confirmation code to the sender.
type OTPMailer interface {
	SendDeliveryOTP(ctx context.Context, address, otp, parcelCode string) error
}

type Service struct {
	store    Store
	trips    Trips
	escrow   Escrow
	users    Users
	notifier Notifier
	mailer   OTPMailer
	cfg      config.LifecycleConfig

	clock func() time.Time
}

func NewService(store Store, trips Trips, escrow Escrow, users Users, notifier Notifier, mailer OTPMailer, cfg config.LifecycleConfig) *Service {
	return &Service{
		store:    store,
		trips:    trips,
		escrow:   escrow,
		users:    users,
		notifier: notifier,
		mailer:   mailer,
		cfg:      cfg,
		clock:    time.Now,
	}
}

type CreateCommand struct {
	Origin          types.Endpoint
	Destination     types.Endpoint
	ReceiverName    string
	ReceiverContact string
	Fee             types.Money
	Payer           Payer
}

func (c CreateCommand) validate() error {
	if c.Origin.City == "" || c.Destination.City == "" {
		return ErrBadRequest
	}
	if c.ReceiverName == "" {
		return ErrBadRequest
	}
	if c.Fee.Amount < 0 {
		return ErrBadRequest
	}
	if c.Payer != PayerSender && c.Payer != PayerReceiver {
		return ErrBadRequest
	}
	return nil
}

func (s *Service) Create(ctx context.Context, actor types.Actor, cmd CreateCommand) (*Parcel, error) {
	if actor.Role != types.RoleSender || !actor.Verified {
		return nil, ErrForbidden
	}
	if err := cmd.validate(); err != nil {
		return nil, err
	}

	now := s.clock()
	p := &Parcel{
		Code:            NewCode(),
		SenderID:        actor.ID,
		Origin:          cmd.Origin,
		Destination:     cmd.Destination,
		ReceiverName:    cmd.ReceiverName,
		ReceiverContact: cmd.ReceiverContact,
		Fee:             cmd.Fee,
		Payer:           cmd.Payer,
		Status:          StatusPending,
		PaymentStatus:   PaymentPending,
		Tracking:        []TrackingPoint{},
		CreatedAt:       now,
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}
	_ = s.store.AppendEvent(ctx, &Event{
		ParcelCode: p.Code,
		FromStatus: "",
		ToStatus:   StatusPending,
		ActorType:  "sender",
		ActorID:    &actor.ID,
		CreatedAt:  now,
	})
	return p, nil
}

func (s *Service) Get(ctx context.Context, code string) (*Parcel, error) {
	return s.store.GetByCode(ctx, code)
}

func (s *Service) ListMine(ctx context.Context, actor types.Actor) ([]*Parcel, error) {
	return s.store.ListBySender(ctx, actor.ID)
}

// Accept assigns a pending parcel to the traveller's active trip. The trip
// slot is reserved first (conditional append, capacity checked in the same
// write), then the parcel is compare-and-set to accepted; if that loses a
// race the slot is released again. Exactly one of N concurrent accepts wins.
func (s *Service) Accept(ctx context.Context, actor types.Actor, code, tripCode string) error {
	if actor.Role != types.RoleTraveller || !actor.Verified {
		return ErrForbidden
	}
	p, err := s.store.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	if p.SenderID == actor.ID {
		return ErrForbidden
	}
	if p.Status != StatusPending {
		return ErrConflict
	}

	t, err := s.trips.GetByCode(ctx, tripCode)
	if err != nil {
		return err
	}
	if t.TravellerID != actor.ID {
		return ErrForbidden
	}
	if t.Status != trip.StatusActive {
		return ErrTripClosed
	}
	if t.SpareCapacity() == 0 {
		return ErrTripFull
	}

	reserved, err := s.trips.ReserveSlot(ctx, tripCode, code)
	if err != nil {
		return err
	}
	if !reserved {
		// The trip filled up or closed between the read and the write.
		t2, err := s.trips.GetByCode(ctx, tripCode)
		if err == nil && t2.Status != trip.StatusActive {
			return ErrTripClosed
		}
		return ErrTripFull
	}

	ok, err := s.store.Assign(ctx, code, p.StatusVersion, actor.ID, tripCode, GenerateOTP())
	if err != nil {
		_ = s.trips.ReleaseSlot(ctx, tripCode, code)
		return err
	}
	if !ok {
		_ = s.trips.ReleaseSlot(ctx, tripCode, code)
		return ErrConflict
	}

	now := s.clock()
	_ = s.store.AppendEvent(ctx, &Event{
		ParcelCode: code,
		FromStatus: StatusPending,
		ToStatus:   StatusAccepted,
		ActorType:  "traveller",
		ActorID:    &actor.ID,
		CreatedAt:  now,
	})
	s.notify([]types.ID{p.SenderID, actor.ID},
		"Parcel accepted",
		"Parcel "+code+" was accepted onto trip "+tripCode+".",
		"parcel_accepted",
		map[string]string{"parcel": code, "trip": tripCode})
	return nil
}

// Pickup records that the assigned traveller collected the parcel.
func (s *Service) Pickup(ctx context.Context, actor types.Actor, code string) error {
	p, err := s.store.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	if p.TravellerID == nil || *p.TravellerID != actor.ID {
		return ErrForbidden
	}
	if p.Status != StatusAccepted {
		return ErrConflict
	}
	ok, err := s.store.UpdateStatus(ctx, code, StatusAccepted, StatusPickedUp, p.StatusVersion)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	_ = s.store.AppendEvent(ctx, &Event{
		ParcelCode: code,
		FromStatus: StatusAccepted,
		ToStatus:   StatusPickedUp,
		ActorType:  "traveller",
		ActorID:    &actor.ID,
		CreatedAt:  s.clock(),
	})
	s.notify([]types.ID{p.SenderID}, "Parcel picked up",
		"Parcel "+code+" is on its way.", "parcel_picked_up",
		map[string]string{"parcel": code})
	return nil
}

// Track appends a tracking point. The first point after pickup moves the
// parcel to in_transit; the ring keeps only the most recent hundred points.
func (s *Service) Track(ctx context.Context, actor types.Actor, code string, point types.Point, note string) error {
	p, err := s.store.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	if p.TravellerID == nil || *p.TravellerID != actor.ID {
		return ErrForbidden
	}
	if p.Status != StatusPickedUp && p.Status != StatusInTransit {
		return ErrConflict
	}

	tracking := append(p.Tracking, TrackingPoint{Point: point, Note: note, At: s.clock()})
	if len(tracking) > MaxTrackingPoints {
		tracking = tracking[len(tracking)-MaxTrackingPoints:]
	}
	to := p.Status
	if to == StatusPickedUp {
		to = StatusInTransit
	}
	ok, err := s.store.UpdateTracking(ctx, code, p.Status, to, p.StatusVersion, tracking)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	if to != p.Status {
		_ = s.store.AppendEvent(ctx, &Event{
			ParcelCode: code,
			FromStatus: p.Status,
			ToStatus:   to,
			ActorType:  "traveller",
			ActorID:    &actor.ID,
			CreatedAt:  s.clock(),
		})
	}
	return nil
}

// Deliver opens the delivery-confirmation window: a fresh OTP with a bounded
// lifetime is stored on the parcel together with any drop-off proof, mailed
// to the sender, and the status stays put until the sender confirms with
// the code.
func (s *Service) Deliver(ctx context.Context, actor types.Actor, code, proof string) error {
	p, err := s.store.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	if p.TravellerID == nil || *p.TravellerID != actor.ID {
		return ErrForbidden
	}
	if p.Status != StatusPickedUp && p.Status != StatusInTransit {
		return ErrConflict
	}

	otp := GenerateOTP()
	expires := s.clock().Add(s.cfg.OTPTTL)
	ok, err := s.store.ArmDeliveryOTP(ctx, code, p.Status, p.StatusVersion, otp, expires, proof)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}

	s.notify([]types.ID{p.SenderID}, "Confirm your delivery",
		"Parcel "+code+" has arrived. Share or enter the confirmation code to complete delivery.",
		"parcel_delivered",
		map[string]string{"parcel": code})

	if s.mailer != nil {
		sender, err := s.users.Get(ctx, p.SenderID)
		switch {
		case err != nil:
			log.Printf("parcel %s: delivery OTP mail skipped, sender lookup failed: %v", code, err)
		case sender.Email == "":
			log.Printf("parcel %s: delivery OTP mail skipped, sender has no email", code)
		default:
			if err := s.mailer.SendDeliveryOTP(ctx, sender.Email, otp, code); err != nil {
				log.Printf("parcel %s: delivery OTP mail failed: %v", code, err)
			}
		}
	}
	return nil
}

// Confirm completes delivery. Only the sender may confirm, and only with the
// current, unexpired code; success clears the code (single use), credits the
// traveller through escrow, updates both parties' counters, and completes the
// trip when this was its last open parcel.
func (s *Service) Confirm(ctx context.Context, actor types.Actor, code, otp string) error {
	p, err := s.store.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	if p.SenderID != actor.ID {
		return ErrForbidden
	}
	if p.Status != StatusPickedUp && p.Status != StatusInTransit {
		return ErrConflict
	}
	now := s.clock()
	if err := p.VerifyOTP(otp, now); err != nil {
		return err
	}

	ok, err := s.store.ConfirmDelivered(ctx, code, p.Status, p.StatusVersion, now)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	_ = s.store.AppendEvent(ctx, &Event{
		ParcelCode: code,
		FromStatus: p.Status,
		ToStatus:   StatusDelivered,
		ActorType:  "sender",
		ActorID:    &actor.ID,
		CreatedAt:  now,
	})

	traveller := *p.TravellerID
	if err := s.users.IncrementDeliveryStats(ctx, traveller, p.SenderID); err != nil {
		log.Printf("parcel %s: stats update failed: %v", code, err)
	}

	if p.TripCode != nil {
		s.completeTripIfDone(ctx, *p.TripCode)
	}

	if p.PaymentStatus == PaymentHeld {
		if err := s.escrow.Release(ctx, code); err != nil {
			log.Printf("parcel %s: escrow release failed: %v", code, err)
		}
	}

	s.notify([]types.ID{p.SenderID, traveller}, "Delivery confirmed",
		"Parcel "+code+" was delivered and confirmed.", "parcel_confirmed",
		map[string]string{"parcel": code})
	return nil
}

func (s *Service) completeTripIfDone(ctx context.Context, tripCode string) {
	t, err := s.trips.GetByCode(ctx, tripCode)
	if err != nil {
		log.Printf("trip %s: lookup failed: %v", tripCode, err)
		return
	}
	if t.Status != trip.StatusActive {
		return
	}
	open, err := s.store.CountUndelivered(ctx, t.AcceptedParcels)
	if err != nil {
		log.Printf("trip %s: open parcel count failed: %v", tripCode, err)
		return
	}
	if open > 0 {
		return
	}
	if _, err := s.trips.SetStatus(ctx, tripCode, trip.StatusActive, trip.StatusCompleted); err != nil {
		log.Printf("trip %s: completion failed: %v", tripCode, err)
	}
}

// Dispute may be raised by either party from any active state. Whether a
// delivered parcel can still be disputed is a deployment setting.
func (s *Service) Dispute(ctx context.Context, actor types.Actor, code, reason string) error {
	if reason == "" {
		return ErrBadRequest
	}
	p, err := s.store.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	isSender := p.SenderID == actor.ID
	isTraveller := p.TravellerID != nil && *p.TravellerID == actor.ID
	if !isSender && !isTraveller {
		return ErrForbidden
	}
	if !p.Active() {
		if !(p.Status == StatusDelivered && s.cfg.AllowTerminalDispute) {
			return ErrConflict
		}
	}

	ok, err := s.store.Dispute(ctx, code, p.Status, p.StatusVersion, reason)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	actorType := "sender"
	if isTraveller {
		actorType = "traveller"
	}
	_ = s.store.AppendEvent(ctx, &Event{
		ParcelCode: code,
		FromStatus: p.Status,
		ToStatus:   StatusDisputed,
		ActorType:  actorType,
		ActorID:    &actor.ID,
		CreatedAt:  s.clock(),
	})
	return nil
}

type UpdateCommand = CreateCommand

// Update replaces the mutable fields of a pending or expired parcel; updating
// an expired parcel re-opens it as pending.
func (s *Service) Update(ctx context.Context, actor types.Actor, code string, cmd UpdateCommand) error {
	p, err := s.store.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	if p.SenderID != actor.ID {
		return ErrForbidden
	}
	if p.Status != StatusPending && p.Status != StatusExpired {
		return ErrConflict
	}
	if err := cmd.validate(); err != nil {
		return err
	}

	np := *p
	np.Origin = cmd.Origin
	np.Destination = cmd.Destination
	np.ReceiverName = cmd.ReceiverName
	np.ReceiverContact = cmd.ReceiverContact
	np.Fee = cmd.Fee
	np.Payer = cmd.Payer
	ok, err := s.store.Replace(ctx, &np, p.StatusVersion)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	if p.Status == StatusExpired {
		_ = s.store.AppendEvent(ctx, &Event{
			ParcelCode: code,
			FromStatus: StatusExpired,
			ToStatus:   StatusPending,
			ActorType:  "sender",
			ActorID:    &actor.ID,
			CreatedAt:  s.clock(),
		})
	}
	return nil
}

// Delete removes a pending or expired parcel entirely.
func (s *Service) Delete(ctx context.Context, actor types.Actor, code string) error {
	p, err := s.store.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	if p.SenderID != actor.ID {
		return ErrForbidden
	}
	if p.Status != StatusPending && p.Status != StatusExpired {
		return ErrConflict
	}
	ok, err := s.store.Delete(ctx, code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	return nil
}

// SweepExpired force-expires pending, unassigned parcels that have aged past
// the configured window. The store filter is conditional, so racing a
// concurrent accept is safe and re-running the sweep is idempotent.
func (s *Service) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.store.ExpireStale(ctx, now.Add(-s.cfg.ExpireAfter))
	if err != nil {
		return 0, err
	}
	for _, p := range expired {
		_ = s.store.AppendEvent(ctx, &Event{
			ParcelCode: p.Code,
			FromStatus: StatusPending,
			ToStatus:   StatusExpired,
			ActorType:  "system",
			CreatedAt:  now,
		})
		s.notify([]types.ID{p.SenderID}, "Parcel expired",
			"Parcel "+p.Code+" found no traveller and has expired. Update it to re-open matching.",
			"parcel_expired",
			map[string]string{"parcel": p.Code})
	}
	return len(expired), nil
}

// RunExpirationSweep drives SweepExpired on a timer until ctx is cancelled.
func (s *Service) RunExpirationSweep(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := s.SweepExpired(ctx, s.clock()); err != nil {
				log.Printf("expiration sweep: %v", err)
			} else if n > 0 {
				log.Printf("expiration sweep: expired %d parcels", n)
			}
		}
	}
}

func (s *Service) notify(ids []types.ID, title, message, category string, meta map[string]string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ids, title, message, category, meta)
}

const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// NewCode returns a short human-readable parcel code, e.g. PKG-9W4KXT.
func NewCode() string {
	var b [6]byte
	_, _ = rand.Read(b[:])
	out := make([]byte, 6)
	for i, v := range b {
		out[i] = codeAlphabet[int(v)%len(codeAlphabet)]
	}
	return "PKG-" + string(out)
}
