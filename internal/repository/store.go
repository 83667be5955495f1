// Package repository implements MySQL persistence for the seat
// booking service using database/sql directly.  Expected schema:
//
//	CREATE TABLE seats (
//	    id                 BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
//	    seat_number        VARCHAR(16)  NOT NULL,
//	    section            VARCHAR(64)  NOT NULL,
//	    row_label          VARCHAR(16)  NOT NULL,
//	    monthly_rate_cents INT UNSIGNED NOT NULL,
//	    is_active          TINYINT(1)   NOT NULL DEFAULT 1,
//	    created_at         DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
//	    UNIQUE KEY uq_seats_number (seat_number)
//	);
//
//	CREATE TABLE seat_holds (
//	    id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
//	    seat_id    BIGINT UNSIGNED NOT NULL REFERENCES seats(id),
//	    user_id    BIGINT UNSIGNED NOT NULL REFERENCES users(id),
//	    hold_token CHAR(64)        NOT NULL,
//	    held_at    DATETIME        NOT NULL,
//	    expires_at DATETIME        NOT NULL,
//	    UNIQUE KEY uq_seat_holds_seat (seat_id)
//	);
//
//	CREATE TABLE bookings (
//	    id                    BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
//	    seat_id               BIGINT UNSIGNED NOT NULL REFERENCES seats(id),
//	    user_id               BIGINT UNSIGNED NOT NULL REFERENCES users(id),
//	    status                ENUM('PENDING','APPROVED','REJECTED','CANCELLED','EXPIRED') NOT NULL,
//	    duration_months       INT UNSIGNED    NOT NULL,
//	    requested_at          DATETIME        NOT NULL,
//	    booked_at             DATETIME        NULL,
//	    subscription_end_date DATETIME        NULL,
//	    approved_at           DATETIME        NULL,
//	    approved_by           BIGINT UNSIGNED NULL,
//	    payment_ref           VARCHAR(128)    NULL,
//	    total_amount_cents    INT UNSIGNED    NOT NULL,
//	    KEY idx_bookings_user_status (user_id, status),
//	    KEY idx_bookings_seat_status (seat_id, status)
//	);
//
// uq_seat_holds_seat is load-bearing: every transaction deletes
// expired hold rows before inserting, so the unique key on seat_id is
// exactly the "one live hold per seat" guarantee, and the loser of a
// concurrent insert race gets a duplicate-key error instead of a
// TOCTOU window.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/library-seat-booking/internal/booking"
	"github.com/iliyamo/library-seat-booking/internal/model"
)

// Store bundles the per-table repositories behind the booking.Store
// contract.  It is the only component that begins and commits
// transactions for the booking protocol.
type Store struct {
	db       *sql.DB
	seats    *SeatRepo
	holds    *SeatHoldRepo
	bookings *BookingRepo
}

// NewStore constructs a Store over an open database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:       db,
		seats:    NewSeatRepo(db),
		holds:    NewSeatHoldRepo(db),
		bookings: NewBookingRepo(db),
	}
}

// DB exposes the underlying handle for components wired outside the
// booking protocol (auth repositories share the same database).
func (s *Store) DB() *sql.DB { return s.db }

// InTx runs fn inside a transaction, committing on nil and rolling
// back on error or panic.
func (s *Store) InTx(ctx context.Context, fn func(tx booking.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&storeTx{tx: tx, s: s}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// AllSeats lists the active seat catalog.
func (s *Store) AllSeats(ctx context.Context) ([]model.Seat, error) {
	return s.seats.ListAll(ctx)
}

// BookingByID fetches one booking.
func (s *Store) BookingByID(ctx context.Context, id uint64) (model.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

// BookingsByUser lists a user's bookings, newest first.
func (s *Store) BookingsByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	return s.bookings.ListByUser(ctx, userID)
}

// BookingsByStatus lists bookings in a lifecycle status, oldest first.
func (s *Store) BookingsByStatus(ctx context.Context, status string) ([]model.Booking, error) {
	return s.bookings.ListByStatus(ctx, status)
}

// CreateSeat provisions a new seat.
func (s *Store) CreateSeat(ctx context.Context, seat *model.Seat) error {
	return s.seats.Create(ctx, seat)
}

// storeTx adapts an open *sql.Tx to the booking.Tx contract by
// delegating to the per-table repositories.
type storeTx struct {
	tx *sql.Tx
	s  *Store
}

func (t *storeTx) SeatByID(ctx context.Context, seatID uint64) (model.Seat, error) {
	return t.s.seats.GetByIDTx(ctx, t.tx, seatID)
}

func (t *storeTx) AllSeats(ctx context.Context) ([]model.Seat, error) {
	return t.s.seats.ListAllTx(ctx, t.tx)
}

func (t *storeTx) InsertHold(ctx context.Context, hold *model.SeatHold) error {
	return t.s.holds.InsertTx(ctx, t.tx, hold)
}

func (t *storeTx) DeleteHoldBySeat(ctx context.Context, seatID uint64) error {
	return t.s.holds.DeleteBySeatTx(ctx, t.tx, seatID)
}

func (t *storeTx) DeleteExpiredHolds(ctx context.Context, now time.Time) ([]model.SeatHold, error) {
	return t.s.holds.DeleteExpiredTx(ctx, t.tx, now)
}

func (t *storeTx) LiveHoldBySeat(ctx context.Context, seatID uint64, now time.Time) (*model.SeatHold, error) {
	return t.s.holds.LiveBySeatTx(ctx, t.tx, seatID, now)
}

func (t *storeTx) LiveHolds(ctx context.Context, now time.Time) ([]model.SeatHold, error) {
	return t.s.holds.ListLiveTx(ctx, t.tx, now)
}

func (t *storeTx) InsertBooking(ctx context.Context, b *model.Booking) error {
	return t.s.bookings.InsertTx(ctx, t.tx, b)
}

func (t *storeTx) UpdateBooking(ctx context.Context, b *model.Booking) error {
	return t.s.bookings.UpdateTx(ctx, t.tx, b)
}

func (t *storeTx) BookingByID(ctx context.Context, id uint64) (model.Booking, error) {
	return t.s.bookings.GetByIDTx(ctx, t.tx, id)
}

func (t *storeTx) ActiveBookingByUser(ctx context.Context, userID uint64, now time.Time) (*model.Booking, error) {
	return t.s.bookings.ActiveByUserTx(ctx, t.tx, userID, now)
}

func (t *storeTx) ApprovedBookingBySeat(ctx context.Context, seatID uint64, now time.Time) (*model.Booking, error) {
	return t.s.bookings.ApprovedBySeatTx(ctx, t.tx, seatID, now)
}

func (t *storeTx) PendingBookings(ctx context.Context) ([]model.Booking, error) {
	return t.s.bookings.ListByStatusTx(ctx, t.tx, model.BookingStatusPending)
}

func (t *storeTx) ApprovedBookings(ctx context.Context) ([]model.Booking, error) {
	return t.s.bookings.ListByStatusTx(ctx, t.tx, model.BookingStatusApproved)
}
