package model

import "time"

// Seat describes a study seat in the library.  Seats are static
// reference data created at provisioning time and never deleted in
// normal operation.  Each seat carries a human label (e.g. "A5"),
// its physical location and the monthly rate a subscriber pays.
//
// Fields:
//  ID               – primary key identifier.
//  SeatNumber       – human label displayed on the seat map.
//  Section          – area of the library the seat belongs to.
//  RowLabel         – row designation within the section.
//  MonthlyRateCents – monthly subscription price in minor units.
//  IsActive         – whether the seat is offered for booking.
//  CreatedAt        – when the seat was provisioned.
type Seat struct {
	ID               uint64    // seats.id
	SeatNumber       string    // seats.seat_number
	Section          string    // seats.section
	RowLabel         string    // seats.row_label
	MonthlyRateCents uint32    // seats.monthly_rate_cents
	IsActive         bool      // seats.is_active
	CreatedAt        time.Time // seats.created_at
}
