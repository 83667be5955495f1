package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/library-seat-booking/internal/booking"
	"github.com/iliyamo/library-seat-booking/internal/model"
)

// BookingRepo provides data access to the bookings table.  Bookings
// are append-only: rows transition between statuses but are never
// physically deleted, so the table doubles as an audit trail.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the provided database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, seat_id, user_id, status, duration_months, requested_at,
	booked_at, subscription_end_date, approved_at, approved_by, payment_ref, total_amount_cents`

func scanBooking(row interface{ Scan(...interface{}) error }) (model.Booking, error) {
	var (
		b          model.Booking
		bookedAt   sql.NullTime
		subEnd     sql.NullTime
		approvedAt sql.NullTime
		approvedBy sql.NullInt64
		paymentRef sql.NullString
	)
	err := row.Scan(&b.ID, &b.SeatID, &b.UserID, &b.Status, &b.DurationMonths, &b.RequestedAt,
		&bookedAt, &subEnd, &approvedAt, &approvedBy, &paymentRef, &b.TotalAmountCents)
	if err != nil {
		return model.Booking{}, err
	}
	if bookedAt.Valid {
		t := bookedAt.Time
		b.BookedAt = &t
	}
	if subEnd.Valid {
		t := subEnd.Time
		b.SubscriptionEndDate = &t
	}
	if approvedAt.Valid {
		t := approvedAt.Time
		b.ApprovedAt = &t
	}
	if approvedBy.Valid {
		v := uint64(approvedBy.Int64)
		b.ApprovedBy = &v
	}
	if paymentRef.Valid {
		s := paymentRef.String
		b.PaymentRef = &s
	}
	return b, nil
}

// InsertTx inserts a new booking within the provided transaction and
// populates its generated ID.  Status should be PENDING on insert;
// later transitions go through UpdateTx.
func (r *BookingRepo) InsertTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (seat_id, user_id, status, duration_months, requested_at, total_amount_cents)
		VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, b.SeatID, b.UserID, b.Status, b.DurationMonths, b.RequestedAt, b.TotalAmountCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// UpdateTx writes the mutable booking fields back within the provided
// transaction.
func (r *BookingRepo) UpdateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `UPDATE bookings
		SET status = ?, booked_at = ?, subscription_end_date = ?, approved_at = ?, approved_by = ?,
			payment_ref = ?, total_amount_cents = ?
		WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, b.Status, b.BookedAt, b.SubscriptionEndDate, b.ApprovedAt, b.ApprovedBy,
		b.PaymentRef, b.TotalAmountCents, b.ID)
	return err
}

// GetByIDTx fetches a booking by id inside a transaction, reporting
// booking.ErrBookingNotFound for unknown ids.
func (r *BookingRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ? LIMIT 1`
	b, err := scanBooking(tx.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, booking.ErrBookingNotFound
	}
	return b, err
}

// GetByID fetches a booking by id outside a transaction.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ? LIMIT 1`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, booking.ErrBookingNotFound
	}
	return b, err
}

// ActiveByUserTx returns the user's booking that still occupies the
// single active-booking slot, or nil.  PENDING always occupies it;
// APPROVED only while the subscription runs.  A lapsed subscription
// keeps its APPROVED row for the audit trail but no longer blocks
// the user from booking again.
func (r *BookingRepo) ActiveByUserTx(ctx context.Context, tx *sql.Tx, userID uint64, now time.Time) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings
		WHERE user_id = ? AND (status = 'PENDING'
			OR (status = 'APPROVED' AND (subscription_end_date IS NULL OR subscription_end_date > ?)))
		LIMIT 1`
	b, err := scanBooking(tx.QueryRowContext(ctx, q, userID, now))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ApprovedBySeatTx returns the approved booking currently covering
// the seat, or nil.  A booking with no subscription_end_date covers
// the seat indefinitely.
func (r *BookingRepo) ApprovedBySeatTx(ctx context.Context, tx *sql.Tx, seatID uint64, now time.Time) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings
		WHERE seat_id = ? AND status = 'APPROVED'
		AND (subscription_end_date IS NULL OR subscription_end_date > ?)
		LIMIT 1`
	b, err := scanBooking(tx.QueryRowContext(ctx, q, seatID, now))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListByStatusTx returns every booking in the given status inside a
// transaction.
func (r *BookingRepo) ListByStatusTx(ctx context.Context, tx *sql.Tx, status string) ([]model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE status = ?`
	rows, err := tx.QueryContext(ctx, q, status)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

// ListByUser returns every booking the user has made, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = ? ORDER BY requested_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

// ListByStatus returns every booking in the given status, oldest
// first so admins review requests in arrival order.
func (r *BookingRepo) ListByStatus(ctx context.Context, status string) ([]model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE status = ? ORDER BY requested_at`
	rows, err := r.db.QueryContext(ctx, q, status)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func collectBookings(rows *sql.Rows) ([]model.Booking, error) {
	defer rows.Close()
	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
