// Package booking implements the seat booking protocol: the state
// machine that moves a seat from vacant through held to booked, the
// one-active-booking rule, and the expiry sweep that reclaims seats
// whose holds lapsed without confirmation.
package booking

import "errors"

// Sentinel errors returned by the protocol and by Store
// implementations.  Handlers translate these into user-facing HTTP
// responses with errors.Is; anything not listed here is treated as a
// store failure.
var (
	// ErrInvalidDuration is returned before any write when the
	// requested subscription length is outside the accepted range.
	ErrInvalidDuration = errors.New("duration must be between 1 and 12 months")

	// ErrSeatNotFound is returned when the referenced seat does not
	// exist or is not offered for booking.
	ErrSeatNotFound = errors.New("seat not found")

	// ErrBookingNotFound is returned when the referenced booking does
	// not exist.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrSeatHeld is returned when another user owns an unexpired hold
	// on the seat.  The losing side of a hold race receives this.
	ErrSeatHeld = errors.New("seat is held by another user")

	// ErrSeatBooked is returned when an approved booking currently
	// covers the seat.
	ErrSeatBooked = errors.New("seat is already booked")

	// ErrActiveBookingExists is returned when the requesting user
	// already owns a pending or approved booking anywhere in the
	// system.
	ErrActiveBookingExists = errors.New("user already has an active booking")

	// ErrInvalidEndDate is returned when an approval carries an
	// explicit subscription end date that is not in the future.
	ErrInvalidEndDate = errors.New("subscription end date must be in the future")

	// ErrNotPending is returned when a transition requires the booking
	// to still be pending (cancel, approve, reject) but it is not.
	ErrNotPending = errors.New("booking is not pending")

	// ErrForbidden is returned when a user attempts to act on a
	// booking owned by someone else.
	ErrForbidden = errors.New("forbidden")
)
