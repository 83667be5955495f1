package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/library-seat-booking/internal/booking"
	"github.com/iliyamo/library-seat-booking/internal/model"
)

// SeatHoldRepo provides data access to the seat_holds table.  All
// timestamps are UTC.  The table carries a UNIQUE KEY on seat_id;
// because expired rows are deleted in the same transaction before
// any insert, "row exists" and "live hold exists" coincide, and the
// index is what decides a race between two users grabbing the same
// seat.
type SeatHoldRepo struct {
	db *sql.DB
}

// NewSeatHoldRepo returns a new SeatHoldRepo bound to the provided database.
func NewSeatHoldRepo(db *sql.DB) *SeatHoldRepo { return &SeatHoldRepo{db: db} }

const holdColumns = `id, seat_id, user_id, hold_token, held_at, expires_at`

func scanHold(row interface{ Scan(...interface{}) error }) (model.SeatHold, error) {
	var h model.SeatHold
	err := row.Scan(&h.ID, &h.SeatID, &h.UserID, &h.HoldToken, &h.HeldAt, &h.ExpiresAt)
	return h, err
}

// InsertTx inserts a hold within the provided transaction and
// populates its generated ID.  A duplicate-key failure on the seat_id
// index means another transaction holds the seat; it is reported as
// booking.ErrSeatHeld so the caller can roll back the whole unit.
func (r *SeatHoldRepo) InsertTx(ctx context.Context, tx *sql.Tx, h *model.SeatHold) error {
	const q = `INSERT INTO seat_holds (seat_id, user_id, hold_token, held_at, expires_at) VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, h.SeatID, h.UserID, h.HoldToken, h.HeldAt, h.ExpiresAt)
	if err != nil {
		// MySQL error 1062 = duplicate entry for a unique key.
		if strings.Contains(err.Error(), "1062") {
			return booking.ErrSeatHeld
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = uint64(id)
	return nil
}

// DeleteExpiredTx removes every hold whose expires_at has passed and
// returns the removed rows so the caller can expire their backing
// bookings.  When nothing has expired it returns an empty slice and
// nil error.
func (r *SeatHoldRepo) DeleteExpiredTx(ctx context.Context, tx *sql.Tx, now time.Time) ([]model.SeatHold, error) {
	const sel = `SELECT ` + holdColumns + ` FROM seat_holds WHERE expires_at <= ?`
	rows, err := tx.QueryContext(ctx, sel, now)
	if err != nil {
		return nil, err
	}
	expired, err := collectHolds(rows)
	if err != nil {
		return nil, err
	}
	if len(expired) == 0 {
		return []model.SeatHold{}, nil
	}
	const del = `DELETE FROM seat_holds WHERE expires_at <= ?`
	if _, err := tx.ExecContext(ctx, del, now); err != nil {
		return nil, err
	}
	return expired, nil
}

// LiveBySeatTx returns the unexpired hold for a seat, or nil when the
// seat is not held.
func (r *SeatHoldRepo) LiveBySeatTx(ctx context.Context, tx *sql.Tx, seatID uint64, now time.Time) (*model.SeatHold, error) {
	const q = `SELECT ` + holdColumns + ` FROM seat_holds WHERE seat_id = ? AND expires_at > ? LIMIT 1`
	h, err := scanHold(tx.QueryRowContext(ctx, q, seatID, now))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// ListLiveTx returns every unexpired hold.
func (r *SeatHoldRepo) ListLiveTx(ctx context.Context, tx *sql.Tx, now time.Time) ([]model.SeatHold, error) {
	const q = `SELECT ` + holdColumns + ` FROM seat_holds WHERE expires_at > ?`
	rows, err := tx.QueryContext(ctx, q, now)
	if err != nil {
		return nil, err
	}
	return collectHolds(rows)
}

// DeleteBySeatTx removes any hold row for the given seat.  Used when
// a booking leaves PENDING: the hold is confirmed away, rejected, or
// released by a self-cancel.
func (r *SeatHoldRepo) DeleteBySeatTx(ctx context.Context, tx *sql.Tx, seatID uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM seat_holds WHERE seat_id = ?`, seatID)
	return err
}

func collectHolds(rows *sql.Rows) ([]model.SeatHold, error) {
	defer rows.Close()
	var holds []model.SeatHold
	for rows.Next() {
		h, err := scanHold(rows)
		if err != nil {
			return nil, err
		}
		holds = append(holds, h)
	}
	return holds, rows.Err()
}
