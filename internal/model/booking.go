package model

import "time"

// Booking lifecycle statuses.  PENDING and APPROVED are the two
// "active" statuses; a user may own at most one active booking
// system-wide.  REJECTED, CANCELLED and EXPIRED are terminal.
// CANCELLED records a user self-cancel while the booking was still
// pending; EXPIRED records a sweeper reclamation after the backing
// hold lapsed without admin action.  The two are kept distinct so
// reports can tell user intent apart from timeout.
const (
	BookingStatusPending   = "PENDING"
	BookingStatusApproved  = "APPROVED"
	BookingStatusRejected  = "REJECTED"
	BookingStatusCancelled = "CANCELLED"
	BookingStatusExpired   = "EXPIRED"
)

// Booking records a user's request for a seat subscription and, once
// approved, the grant itself.  Rows are append-only: status
// transitions are written in place but bookings are never physically
// deleted, preserving an audit trail.
//
// Fields:
//  ID                  – primary key identifier.
//  SeatID              – seat being requested.
//  UserID              – user who requested the seat.
//  Status              – one of the BookingStatus* constants.
//  DurationMonths      – requested subscription length.
//  RequestedAt         – when the request was submitted.
//  BookedAt            – when the booking was approved (nullable).
//  SubscriptionEndDate – effective-until date once approved (nullable).
//  ApprovedAt          – admin approval timestamp (nullable).
//  ApprovedBy          – admin who decided the request; set on both
//                        approval and rejection so the audit trail
//                        always names the deciding staff member.
//  PaymentRef          – external payment reference, if any.
//  TotalAmountCents    – DurationMonths times the seat's monthly rate.
type Booking struct {
	ID                  uint64     // bookings.id
	SeatID              uint64     // bookings.seat_id
	UserID              uint64     // bookings.user_id
	Status              string     // bookings.status
	DurationMonths      uint32     // bookings.duration_months
	RequestedAt         time.Time  // bookings.requested_at
	BookedAt            *time.Time // bookings.booked_at (nullable)
	SubscriptionEndDate *time.Time // bookings.subscription_end_date (nullable)
	ApprovedAt          *time.Time // bookings.approved_at (nullable)
	ApprovedBy          *uint64    // bookings.approved_by (nullable)
	PaymentRef          *string    // bookings.payment_ref (nullable)
	TotalAmountCents    uint32     // bookings.total_amount_cents
}

// Active reports whether the booking occupies its user's single
// active-booking slot at the given instant.  A pending booking always
// does; an approved booking only while its subscription runs.  Once
// the end date passes the row stays APPROVED as history but no longer
// blocks the user from booking again.
func (b Booking) Active(now time.Time) bool {
	switch b.Status {
	case BookingStatusPending:
		return true
	case BookingStatusApproved:
		return b.SubscriptionEndDate == nil || b.SubscriptionEndDate.After(now)
	default:
		return false
	}
}
