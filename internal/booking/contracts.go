package booking

import (
	"context"
	"time"

	"github.com/iliyamo/library-seat-booking/internal/model"
	"github.com/iliyamo/library-seat-booking/internal/queue"
)

// Store is the persistence surface the protocol runs against.  All
// coordination between concurrent sessions happens through the
// store's atomicity guarantees; the service keeps no shared
// in-process state.  The production implementation lives in
// internal/repository and is backed by MySQL transactions.
type Store interface {
	// InTx runs fn inside a single transaction.  fn's writes become
	// visible all at once on commit; any error rolls everything back,
	// so a booking and its hold are created or dropped as one unit.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	// Read-only accessors outside a transaction, used for display.
	AllSeats(ctx context.Context) ([]model.Seat, error)
	BookingByID(ctx context.Context, id uint64) (model.Booking, error)
	BookingsByUser(ctx context.Context, userID uint64) ([]model.Booking, error)
	BookingsByStatus(ctx context.Context, status string) ([]model.Booking, error)
	CreateSeat(ctx context.Context, seat *model.Seat) error
}

// Tx exposes the per-table operations available inside a transaction.
// Implementations must guarantee that InsertHold fails with
// ErrSeatHeld when a live hold already exists for the seat, backed by
// a uniqueness constraint rather than a check-then-insert.
type Tx interface {
	SeatByID(ctx context.Context, seatID uint64) (model.Seat, error)
	AllSeats(ctx context.Context) ([]model.Seat, error)

	InsertHold(ctx context.Context, hold *model.SeatHold) error
	DeleteHoldBySeat(ctx context.Context, seatID uint64) error
	DeleteExpiredHolds(ctx context.Context, now time.Time) ([]model.SeatHold, error)
	LiveHoldBySeat(ctx context.Context, seatID uint64, now time.Time) (*model.SeatHold, error)
	LiveHolds(ctx context.Context, now time.Time) ([]model.SeatHold, error)

	InsertBooking(ctx context.Context, b *model.Booking) error
	UpdateBooking(ctx context.Context, b *model.Booking) error
	BookingByID(ctx context.Context, id uint64) (model.Booking, error)
	// ActiveBookingByUser returns the user's booking still occupying
	// the single active-booking slot at the given instant: PENDING, or
	// APPROVED with a running subscription.  Lapsed APPROVED bookings
	// do not count.
	ActiveBookingByUser(ctx context.Context, userID uint64, now time.Time) (*model.Booking, error)
	ApprovedBookingBySeat(ctx context.Context, seatID uint64, now time.Time) (*model.Booking, error)
	PendingBookings(ctx context.Context) ([]model.Booking, error)
	ApprovedBookings(ctx context.Context) ([]model.Booking, error)
}

// Publisher pushes change-feed events to the broker.  Publish
// failures are logged by the service and never fail the request.
type Publisher interface {
	PublishSeatEvent(ctx context.Context, ev queue.SeatEvent) error
}
