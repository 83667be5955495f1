// Package availability derives the display status of every seat from
// a snapshot of the seat catalog, the live holds and the bookings.
// It is the single place where seat status precedence is defined; all
// display surfaces must call Resolve rather than re-derive status
// inline.  The package performs no I/O and never mutates its inputs,
// so identical inputs at an identical evaluation time always yield
// identical output.
package availability

import (
	"time"

	"github.com/iliyamo/library-seat-booking/internal/model"
)

// Status is the derived availability of a seat.  It is computed at
// read time and never persisted.
type Status string

const (
	StatusVacant Status = "VACANT"
	StatusHeld   Status = "HELD"
	StatusBooked Status = "BOOKED"
)

// Resolve computes the status of every seat in the catalog at the
// given instant.  Precedence per seat, evaluated in order:
//
//  1. an APPROVED booking marks the seat BOOKED while its
//     subscription_end_date is in the future; a missing end date
//     defaults to BOOKED indefinitely,
//  2. otherwise a PENDING booking backed by an unexpired hold marks
//     the seat HELD,
//  3. otherwise the seat is VACANT.
//
// Holds or bookings that reference a seat not present in the catalog
// are ignored.  Expired holds are ignored here even if the sweeper
// has not reclaimed them yet, so a stale row can never make a seat
// look held.  The `now` parameter is explicit so callers and tests
// control the evaluation time.
func Resolve(seats []model.Seat, holds []model.SeatHold, bookings []model.Booking, now time.Time) map[uint64]Status {
	liveHeld := make(map[uint64]bool, len(holds))
	for _, h := range holds {
		if h.Live(now) {
			liveHeld[h.SeatID] = true
		}
	}

	approved := make(map[uint64]bool)
	pending := make(map[uint64]bool)
	for _, b := range bookings {
		switch b.Status {
		case model.BookingStatusApproved:
			if b.SubscriptionEndDate == nil || b.SubscriptionEndDate.After(now) {
				approved[b.SeatID] = true
			}
		case model.BookingStatusPending:
			pending[b.SeatID] = true
		}
	}

	out := make(map[uint64]Status, len(seats))
	for _, s := range seats {
		switch {
		case approved[s.ID]:
			out[s.ID] = StatusBooked
		case pending[s.ID] && liveHeld[s.ID]:
			out[s.ID] = StatusHeld
		default:
			out[s.ID] = StatusVacant
		}
	}
	return out
}
