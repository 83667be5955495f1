package booking

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"time"

	"github.com/iliyamo/library-seat-booking/internal/availability"
	"github.com/iliyamo/library-seat-booking/internal/model"
	"github.com/iliyamo/library-seat-booking/internal/queue"
)

// MaxDurationMonths bounds the subscription length a client may
// request in a single booking.
const MaxDurationMonths = 12

// SweepResult reports what an expiry sweep reclaimed.
type SweepResult struct {
	ReleasedHolds     int `json:"released_holds"`
	CancelledBookings int `json:"cancelled_bookings"`
}

// Service implements the booking protocol on top of a Store.  Every
// mutating operation runs inside a single transaction that first
// sweeps expired holds, so no decision is ever made against a stale
// hold.  The service takes the acting user as an explicit parameter
// on every call; it never reads an ambient "current user".
type Service struct {
	store   Store
	events  Publisher
	holdTTL time.Duration
	now     func() time.Time
}

// NewService constructs a Service.  events may be nil, in which case
// change-feed publishing is disabled.  holdTTL is the fixed lifetime
// of a seat hold; it is not renewable by further user action.
func NewService(store Store, events Publisher, holdTTL time.Duration) *Service {
	if store == nil {
		panic("nil store passed to NewService")
	}
	if holdTTL <= 0 {
		holdTTL = 30 * time.Minute
	}
	return &Service{
		store:   store,
		events:  events,
		holdTTL: holdTTL,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service clock.  Intended for tests that
// drive hold expiry along a fixed timeline.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// HoldTTL returns the fixed hold lifetime the service was configured with.
func (s *Service) HoldTTL() time.Duration { return s.holdTTL }

// RequestSeat submits a seat-select request for the user.  On success
// a PENDING booking and its backing hold exist as one atomic unit and
// the hold expires holdTTL from now.  The operation fails with a
// typed error when the seat is unknown, already booked, held by
// another user, or when the user already owns an active booking.
func (s *Service) RequestSeat(ctx context.Context, userID, seatID uint64, durationMonths uint32) (model.Booking, model.SeatHold, error) {
	if durationMonths < 1 || durationMonths > MaxDurationMonths {
		return model.Booking{}, model.SeatHold{}, ErrInvalidDuration
	}
	now := s.now()

	var (
		b    model.Booking
		hold model.SeatHold
	)
	err := s.store.InTx(ctx, func(tx Tx) error {
		// Reclaim lapsed holds first so a stale hold never blocks a
		// fresh request.
		if _, err := s.sweepTx(ctx, tx, now); err != nil {
			return err
		}

		seat, err := tx.SeatByID(ctx, seatID)
		if err != nil {
			return err
		}

		if covering, err := tx.ApprovedBookingBySeat(ctx, seatID, now); err != nil {
			return err
		} else if covering != nil {
			return ErrSeatBooked
		}

		if active, err := tx.ActiveBookingByUser(ctx, userID, now); err != nil {
			return err
		} else if active != nil {
			return ErrActiveBookingExists
		}

		// The user's own open selection was already caught by the
		// active-booking check above, so any live hold found here
		// belongs to someone else.
		if held, err := tx.LiveHoldBySeat(ctx, seatID, now); err != nil {
			return err
		} else if held != nil {
			return ErrSeatHeld
		}

		b = model.Booking{
			SeatID:           seat.ID,
			UserID:           userID,
			Status:           model.BookingStatusPending,
			DurationMonths:   durationMonths,
			RequestedAt:      now,
			TotalAmountCents: durationMonths * seat.MonthlyRateCents,
		}
		if err := tx.InsertBooking(ctx, &b); err != nil {
			return err
		}

		token, err := newHoldToken()
		if err != nil {
			return err
		}
		hold = model.SeatHold{
			SeatID:    seat.ID,
			UserID:    userID,
			HoldToken: token,
			HeldAt:    now,
			ExpiresAt: now.Add(s.holdTTL),
		}
		// The unique index on seat_holds.seat_id decides hold races:
		// if another transaction inserted first, this returns
		// ErrSeatHeld and the whole transaction, booking included,
		// rolls back.
		return tx.InsertHold(ctx, &hold)
	})
	if err != nil {
		return model.Booking{}, model.SeatHold{}, err
	}

	s.publish(ctx, queue.SeatEvent{
		Type:          queue.EventBookingRequested,
		SeatID:        b.SeatID,
		BookingID:     b.ID,
		UserID:        b.UserID,
		BookingStatus: b.Status,
		OccurredAt:    now.Format(time.RFC3339),
	})
	return b, hold, nil
}

// CancelRequest cancels the user's own pending booking and releases
// its hold in the same transaction, so the seat becomes immediately
// selectable by others.
func (s *Service) CancelRequest(ctx context.Context, userID, bookingID uint64) (model.Booking, error) {
	now := s.now()

	var b model.Booking
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		b, err = tx.BookingByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.UserID != userID {
			return ErrForbidden
		}
		if b.Status != model.BookingStatusPending {
			return ErrNotPending
		}
		b.Status = model.BookingStatusCancelled
		if err := tx.UpdateBooking(ctx, &b); err != nil {
			return err
		}
		return tx.DeleteHoldBySeat(ctx, b.SeatID)
	})
	if err != nil {
		return model.Booking{}, err
	}

	s.publish(ctx, queue.SeatEvent{
		Type:          queue.EventBookingCancelled,
		SeatID:        b.SeatID,
		BookingID:     b.ID,
		UserID:        b.UserID,
		BookingStatus: b.Status,
		OccurredAt:    now.Format(time.RFC3339),
	})
	return b, nil
}

// ApproveRequest transitions a pending booking to APPROVED on behalf
// of an admin.  It stamps the approval metadata, computes the
// subscription end date from the requested duration and clears the
// hold, which is no longer needed once the booking is approved.  A
// non-nil endDate overrides the computed end, letting staff honor an
// agreed start offset or a goodwill extension; it must lie in the
// future.
func (s *Service) ApproveRequest(ctx context.Context, adminID, bookingID uint64, paymentRef string, endDate *time.Time) (model.Booking, error) {
	now := s.now()
	if endDate != nil && !endDate.After(now) {
		return model.Booking{}, ErrInvalidEndDate
	}

	var b model.Booking
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		b, err = tx.BookingByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.Status != model.BookingStatusPending {
			return ErrNotPending
		}
		seat, err := tx.SeatByID(ctx, b.SeatID)
		if err != nil {
			return err
		}

		end := now.AddDate(0, int(b.DurationMonths), 0)
		if endDate != nil {
			end = endDate.UTC()
		}
		b.Status = model.BookingStatusApproved
		b.BookedAt = &now
		b.ApprovedAt = &now
		b.ApprovedBy = &adminID
		b.SubscriptionEndDate = &end
		b.TotalAmountCents = b.DurationMonths * seat.MonthlyRateCents
		if paymentRef != "" {
			b.PaymentRef = &paymentRef
		}
		if err := tx.UpdateBooking(ctx, &b); err != nil {
			return err
		}
		return tx.DeleteHoldBySeat(ctx, b.SeatID)
	})
	if err != nil {
		return model.Booking{}, err
	}

	s.publish(ctx, queue.SeatEvent{
		Type:          queue.EventBookingApproved,
		SeatID:        b.SeatID,
		BookingID:     b.ID,
		UserID:        b.UserID,
		BookingStatus: b.Status,
		OccurredAt:    now.Format(time.RFC3339),
	})
	return b, nil
}

// RejectRequest transitions a pending booking to REJECTED on behalf
// of an admin and drops the hold, freeing the seat for a fresh
// request.
func (s *Service) RejectRequest(ctx context.Context, adminID, bookingID uint64) (model.Booking, error) {
	now := s.now()

	var b model.Booking
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		b, err = tx.BookingByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.Status != model.BookingStatusPending {
			return ErrNotPending
		}
		b.Status = model.BookingStatusRejected
		b.ApprovedBy = &adminID
		if err := tx.UpdateBooking(ctx, &b); err != nil {
			return err
		}
		return tx.DeleteHoldBySeat(ctx, b.SeatID)
	})
	if err != nil {
		return model.Booking{}, err
	}

	s.publish(ctx, queue.SeatEvent{
		Type:          queue.EventBookingRejected,
		SeatID:        b.SeatID,
		BookingID:     b.ID,
		UserID:        b.UserID,
		BookingStatus: b.Status,
		OccurredAt:    now.Format(time.RFC3339),
	})
	return b, nil
}

// SweepExpired reclaims seats whose holds lapsed without
// confirmation: expired hold rows are deleted and pending bookings
// left without a live hold transition to EXPIRED.  A zero `now`
// means the current time.
func (s *Service) SweepExpired(ctx context.Context, now time.Time) (SweepResult, error) {
	if now.IsZero() {
		now = s.now()
	}

	var res SweepResult
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		res, err = s.sweepTx(ctx, tx, now)
		return err
	})
	if err != nil {
		return SweepResult{}, err
	}

	if res.ReleasedHolds > 0 || res.CancelledBookings > 0 {
		s.publish(ctx, queue.SeatEvent{
			Type:              queue.EventSweepCompleted,
			ReleasedHolds:     res.ReleasedHolds,
			CancelledBookings: res.CancelledBookings,
			OccurredAt:        now.Format(time.RFC3339),
		})
	}
	return res, nil
}

// Availability returns the derived status of every seat at the given
// instant, from a single consistent snapshot of seats, holds and
// bookings.  Expired holds are swept first; if the sweep fails the
// read proceeds anyway, because the resolver ignores expired holds
// on its own and a slightly stale display beats an unavailable seat
// map.  A zero `now` means the current time.
func (s *Service) Availability(ctx context.Context, now time.Time) (map[uint64]availability.Status, error) {
	if now.IsZero() {
		now = s.now()
	}

	var statuses map[uint64]availability.Status
	err := s.store.InTx(ctx, func(tx Tx) error {
		if _, err := s.sweepTx(ctx, tx, now); err != nil {
			log.Printf("booking: availability sweep failed, serving unswept snapshot: %v", err)
		}

		seats, err := tx.AllSeats(ctx)
		if err != nil {
			return err
		}
		holds, err := tx.LiveHolds(ctx, now)
		if err != nil {
			return err
		}
		pending, err := tx.PendingBookings(ctx)
		if err != nil {
			return err
		}
		approved, err := tx.ApprovedBookings(ctx)
		if err != nil {
			return err
		}

		statuses = availability.Resolve(seats, holds, append(pending, approved...), now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return statuses, nil
}

// Seats lists the seat catalog for display.
func (s *Service) Seats(ctx context.Context) ([]model.Seat, error) {
	return s.store.AllSeats(ctx)
}

// CreateSeat provisions a new seat (admin only; enforced by the
// caller's route guard).
func (s *Service) CreateSeat(ctx context.Context, seat *model.Seat) error {
	return s.store.CreateSeat(ctx, seat)
}

// BookingForUser returns a booking only if it belongs to the given
// user.
func (s *Service) BookingForUser(ctx context.Context, userID, bookingID uint64) (model.Booking, error) {
	b, err := s.store.BookingByID(ctx, bookingID)
	if err != nil {
		return model.Booking{}, err
	}
	if b.UserID != userID {
		return model.Booking{}, ErrForbidden
	}
	return b, nil
}

// BookingsByUser lists every booking the user has ever made, newest
// first, for the "my bookings" view.
func (s *Service) BookingsByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	return s.store.BookingsByUser(ctx, userID)
}

// BookingsByStatus lists bookings in the given lifecycle status for
// the admin review surface.
func (s *Service) BookingsByStatus(ctx context.Context, status string) ([]model.Booking, error) {
	return s.store.BookingsByStatus(ctx, status)
}

// sweepTx performs the expiry sweep inside an open transaction:
// deletes every hold whose expires_at has passed, then expires any
// pending booking left without a live hold.  It also checks the
// one-live-hold-per-seat invariant over the surviving holds; a
// violation means the store's uniqueness constraint is missing or
// broken and is logged loudly rather than silently repaired.
func (s *Service) sweepTx(ctx context.Context, tx Tx, now time.Time) (SweepResult, error) {
	var res SweepResult

	released, err := tx.DeleteExpiredHolds(ctx, now)
	if err != nil {
		return res, err
	}
	res.ReleasedHolds = len(released)

	live, err := tx.LiveHolds(ctx, now)
	if err != nil {
		return res, err
	}
	liveBySeat := make(map[uint64]int, len(live))
	for _, h := range live {
		liveBySeat[h.SeatID]++
		if liveBySeat[h.SeatID] == 2 {
			log.Printf("booking: INVARIANT VIOLATION: multiple live holds for seat %d; seat_holds uniqueness constraint is broken", h.SeatID)
		}
	}

	pending, err := tx.PendingBookings(ctx)
	if err != nil {
		return res, err
	}
	for i := range pending {
		b := pending[i]
		if liveBySeat[b.SeatID] > 0 {
			continue
		}
		b.Status = model.BookingStatusExpired
		if err := tx.UpdateBooking(ctx, &b); err != nil {
			return res, err
		}
		res.CancelledBookings++
	}
	return res, nil
}

// publish pushes a change-feed event, logging instead of failing:
// the feed is best-effort and must never break the request that
// triggered it.
func (s *Service) publish(ctx context.Context, ev queue.SeatEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishSeatEvent(ctx, ev); err != nil {
		log.Printf("booking: publish %s event failed: %v", ev.Type, err)
	}
}

// newHoldToken generates the random hex token stored on a hold and
// returned to the client for correlation.
func newHoldToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
