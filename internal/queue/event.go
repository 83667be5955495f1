// Package queue defines message payloads exchanged over the message broker.
package queue

// Event types published on seat or booking mutation.  Consumers use
// the type to decide how to render or route the message.
const (
	EventBookingRequested = "booking.requested"
	EventBookingCancelled = "booking.cancelled"
	EventBookingApproved  = "booking.approved"
	EventBookingRejected  = "booking.rejected"
	EventSweepCompleted   = "sweep.completed"
)

// SeatEvent is published whenever a hold or booking mutates so that
// connected viewers can refresh their seat map promptly.  It is a
// best-effort push-to-refresh signal; polling the availability
// endpoint remains the ground truth.  The payload carries enough
// information for downstream consumers to log or notify without
// querying the primary database.
type SeatEvent struct {
	Type              string `json:"type"`
	SeatID            uint64 `json:"seat_id,omitempty"`
	SeatNumber        string `json:"seat_number,omitempty"`
	BookingID         uint64 `json:"booking_id,omitempty"`
	UserID            uint64 `json:"user_id,omitempty"`
	BookingStatus     string `json:"booking_status,omitempty"`
	ReleasedHolds     int    `json:"released_holds,omitempty"`
	CancelledBookings int    `json:"cancelled_bookings,omitempty"`
	OccurredAt        string `json:"occurred_at"`
}
