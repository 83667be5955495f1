package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/library-seat-booking/internal/booking"
	"github.com/iliyamo/library-seat-booking/internal/model"
)

// SeatRepo provides data access to the seats table.  Seats are
// read-mostly reference data; the only write is admin provisioning.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo returns a new SeatRepo bound to the provided database.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

const seatColumns = `id, seat_number, section, row_label, monthly_rate_cents, is_active, created_at`

func scanSeat(row interface{ Scan(...interface{}) error }) (model.Seat, error) {
	var s model.Seat
	err := row.Scan(&s.ID, &s.SeatNumber, &s.Section, &s.RowLabel, &s.MonthlyRateCents, &s.IsActive, &s.CreatedAt)
	return s, err
}

// GetByIDTx fetches an active seat inside a transaction.  Inactive or
// unknown seats report booking.ErrSeatNotFound so callers reject the
// request before any write.
func (r *SeatRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Seat, error) {
	const q = `SELECT ` + seatColumns + ` FROM seats WHERE id = ? AND is_active = 1 LIMIT 1`
	s, err := scanSeat(tx.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Seat{}, booking.ErrSeatNotFound
	}
	return s, err
}

// ListAllTx returns every active seat inside a transaction, ordered
// for stable display.
func (r *SeatRepo) ListAllTx(ctx context.Context, tx *sql.Tx) ([]model.Seat, error) {
	const q = `SELECT ` + seatColumns + ` FROM seats WHERE is_active = 1 ORDER BY section, row_label, seat_number`
	rows, err := tx.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSeats(rows)
}

// ListAll returns every active seat outside a transaction.
func (r *SeatRepo) ListAll(ctx context.Context) ([]model.Seat, error) {
	const q = `SELECT ` + seatColumns + ` FROM seats WHERE is_active = 1 ORDER BY section, row_label, seat_number`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSeats(rows)
}

func collectSeats(rows *sql.Rows) ([]model.Seat, error) {
	var seats []model.Seat
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// Create inserts a new seat and populates its generated ID.
func (r *SeatRepo) Create(ctx context.Context, s *model.Seat) error {
	const q = `INSERT INTO seats (seat_number, section, row_label, monthly_rate_cents, is_active) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.SeatNumber, s.Section, s.RowLabel, s.MonthlyRateCents, s.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}
