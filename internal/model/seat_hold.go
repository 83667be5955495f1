package model

import "time"

// SeatHold represents a time-boxed, exclusive claim on a seat while
// the requesting user's booking awaits admin review.  Holds prevent
// two users from acquiring the same seat concurrently.  A hold is
// honored only while ExpiresAt lies in the future; expired rows are
// reclaimed by the sweeper.  At most one live hold may exist per
// seat at any instant, enforced by a unique index on seat_id.
//
// Fields:
//  ID        – primary key identifier.
//  SeatID    – seat being held.
//  UserID    – user who holds the seat.
//  HoldToken – unique token returned to the client for reference.
//  HeldAt    – when the hold was created.
//  ExpiresAt – when the hold lapses (HeldAt + configured TTL).
type SeatHold struct {
	ID        uint64    // seat_holds.id
	SeatID    uint64    // seat_holds.seat_id
	UserID    uint64    // seat_holds.user_id
	HoldToken string    // seat_holds.hold_token
	HeldAt    time.Time // seat_holds.held_at
	ExpiresAt time.Time // seat_holds.expires_at
}

// Live reports whether the hold is still honored at the given instant.
func (h SeatHold) Live(now time.Time) bool {
	return h.ExpiresAt.After(now)
}
