package booking

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/library-seat-booking/internal/availability"
	"github.com/iliyamo/library-seat-booking/internal/model"
	"github.com/iliyamo/library-seat-booking/internal/queue"
)

// memStore is an in-memory Store for exercising the protocol without
// MySQL.  InTx holds a single mutex for the whole transaction, which
// serializes transactions the way the database's row locks and the
// unique index on seat_holds.seat_id do, and restores a snapshot on
// error to model rollback.
type memStore struct {
	mu       sync.Mutex
	seats    map[uint64]model.Seat
	holds    map[uint64]model.SeatHold // keyed by seat id
	bookings map[uint64]model.Booking
	seatSeq  uint64
	holdSeq  uint64
	bookSeq  uint64
}

func newMemStore() *memStore {
	return &memStore{
		seats:    make(map[uint64]model.Seat),
		holds:    make(map[uint64]model.SeatHold),
		bookings: make(map[uint64]model.Booking),
	}
}

func (m *memStore) addSeat(rate uint32) model.Seat {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seatSeq++
	s := model.Seat{ID: m.seatSeq, SeatNumber: "A1", Section: "quiet", MonthlyRateCents: rate, IsActive: true}
	m.seats[s.ID] = s
	return s
}

func (m *memStore) snapshot() (map[uint64]model.SeatHold, map[uint64]model.Booking, uint64, uint64) {
	holds := make(map[uint64]model.SeatHold, len(m.holds))
	for k, v := range m.holds {
		holds[k] = v
	}
	bookings := make(map[uint64]model.Booking, len(m.bookings))
	for k, v := range m.bookings {
		bookings[k] = v
	}
	return holds, bookings, m.holdSeq, m.bookSeq
}

func (m *memStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	holds, bookings, holdSeq, bookSeq := m.snapshot()
	if err := fn(&memTx{s: m}); err != nil {
		m.holds, m.bookings, m.holdSeq, m.bookSeq = holds, bookings, holdSeq, bookSeq
		return err
	}
	return nil
}

func (m *memStore) AllSeats(ctx context.Context) ([]model.Seat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{s: m}).AllSeats(ctx)
}

func (m *memStore) BookingByID(ctx context.Context, id uint64) (model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{s: m}).BookingByID(ctx, id)
}

func (m *memStore) BookingsByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Booking
	for _, b := range m.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memStore) BookingsByStatus(ctx context.Context, status string) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Booking
	for _, b := range m.bookings {
		if b.Status == status {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) CreateSeat(ctx context.Context, seat *model.Seat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seatSeq++
	seat.ID = m.seatSeq
	m.seats[seat.ID] = *seat
	return nil
}

type memTx struct{ s *memStore }

func (t *memTx) SeatByID(ctx context.Context, seatID uint64) (model.Seat, error) {
	s, ok := t.s.seats[seatID]
	if !ok || !s.IsActive {
		return model.Seat{}, ErrSeatNotFound
	}
	return s, nil
}

func (t *memTx) AllSeats(ctx context.Context) ([]model.Seat, error) {
	out := make([]model.Seat, 0, len(t.s.seats))
	for _, s := range t.s.seats {
		if s.IsActive {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) InsertHold(ctx context.Context, hold *model.SeatHold) error {
	if _, exists := t.s.holds[hold.SeatID]; exists {
		return ErrSeatHeld
	}
	t.s.holdSeq++
	hold.ID = t.s.holdSeq
	t.s.holds[hold.SeatID] = *hold
	return nil
}

func (t *memTx) DeleteHoldBySeat(ctx context.Context, seatID uint64) error {
	delete(t.s.holds, seatID)
	return nil
}

func (t *memTx) DeleteExpiredHolds(ctx context.Context, now time.Time) ([]model.SeatHold, error) {
	var removed []model.SeatHold
	for seatID, h := range t.s.holds {
		if !h.Live(now) {
			removed = append(removed, h)
			delete(t.s.holds, seatID)
		}
	}
	return removed, nil
}

func (t *memTx) LiveHoldBySeat(ctx context.Context, seatID uint64, now time.Time) (*model.SeatHold, error) {
	h, ok := t.s.holds[seatID]
	if !ok || !h.Live(now) {
		return nil, nil
	}
	cp := h
	return &cp, nil
}

func (t *memTx) LiveHolds(ctx context.Context, now time.Time) ([]model.SeatHold, error) {
	var out []model.SeatHold
	for _, h := range t.s.holds {
		if h.Live(now) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (t *memTx) InsertBooking(ctx context.Context, b *model.Booking) error {
	t.s.bookSeq++
	b.ID = t.s.bookSeq
	t.s.bookings[b.ID] = *b
	return nil
}

func (t *memTx) UpdateBooking(ctx context.Context, b *model.Booking) error {
	if _, ok := t.s.bookings[b.ID]; !ok {
		return ErrBookingNotFound
	}
	t.s.bookings[b.ID] = *b
	return nil
}

func (t *memTx) BookingByID(ctx context.Context, id uint64) (model.Booking, error) {
	b, ok := t.s.bookings[id]
	if !ok {
		return model.Booking{}, ErrBookingNotFound
	}
	return b, nil
}

func (t *memTx) ActiveBookingByUser(ctx context.Context, userID uint64, now time.Time) (*model.Booking, error) {
	for _, b := range t.s.bookings {
		if b.UserID == userID && b.Active(now) {
			cp := b
			return &cp, nil
		}
	}
	return nil, nil
}

func (t *memTx) ApprovedBookingBySeat(ctx context.Context, seatID uint64, now time.Time) (*model.Booking, error) {
	for _, b := range t.s.bookings {
		if b.SeatID != seatID || b.Status != model.BookingStatusApproved {
			continue
		}
		if b.SubscriptionEndDate == nil || b.SubscriptionEndDate.After(now) {
			cp := b
			return &cp, nil
		}
	}
	return nil, nil
}

func (t *memTx) PendingBookings(ctx context.Context) ([]model.Booking, error) {
	var out []model.Booking
	for _, b := range t.s.bookings {
		if b.Status == model.BookingStatusPending {
			out = append(out, b)
		}
	}
	return out, nil
}

func (t *memTx) ApprovedBookings(ctx context.Context) ([]model.Booking, error) {
	var out []model.Booking
	for _, b := range t.s.bookings {
		if b.Status == model.BookingStatusApproved {
			out = append(out, b)
		}
	}
	return out, nil
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.SeatEvent
}

func (p *recordingPublisher) PublishSeatEvent(ctx context.Context, ev queue.SeatEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

// fixture wires a service against the in-memory store with a
// controllable clock starting at t0.
type fixture struct {
	store *memStore
	pub   *recordingPublisher
	svc   *Service
	now   time.Time
	mu    sync.Mutex
}

func newFixture(t *testing.T, ttl time.Duration) *fixture {
	t.Helper()
	f := &fixture{
		store: newMemStore(),
		pub:   &recordingPublisher{},
		now:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(f.store, f.pub, ttl).WithClock(func() time.Time {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.now
	})
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

const holdTTL = 30 * time.Minute

func TestRequestSeatCreatesPendingBookingAndHold(t *testing.T) {
	f := newFixture(t, holdTTL)
	seat := f.store.addSeat(5000)
	ctx := context.Background()

	b, hold, err := f.svc.RequestSeat(ctx, 7, seat.ID, 3)
	require.NoError(t, err)

	assert.Equal(t, model.BookingStatusPending, b.Status)
	assert.Equal(t, seat.ID, b.SeatID)
	assert.Equal(t, uint64(7), b.UserID)
	assert.Equal(t, uint32(15000), b.TotalAmountCents)
	assert.Nil(t, b.SubscriptionEndDate)

	assert.Equal(t, seat.ID, hold.SeatID)
	assert.Equal(t, uint64(7), hold.UserID)
	assert.NotEmpty(t, hold.HoldToken)
	assert.Equal(t, f.now.Add(holdTTL), hold.ExpiresAt)

	assert.Equal(t, []string{queue.EventBookingRequested}, f.pub.types())
}

func TestRequestSeatDurationBounds(t *testing.T) {
	f := newFixture(t, holdTTL)
	seat := f.store.addSeat(5000)
	ctx := context.Background()

	_, _, err := f.svc.RequestSeat(ctx, 7, seat.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, _, err = f.svc.RequestSeat(ctx, 7, seat.ID, 13)
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, _, err = f.svc.RequestSeat(ctx, 7, seat.ID, 12)
	assert.NoError(t, err)
}

func TestRequestSeatUnknownSeat(t *testing.T) {
	f := newFixture(t, holdTTL)
	_, _, err := f.svc.RequestSeat(context.Background(), 7, 999, 1)
	assert.ErrorIs(t, err, ErrSeatNotFound)
}

func TestRequestSeatHeldByAnotherUser(t *testing.T) {
	f := newFixture(t, holdTTL)
	seat := f.store.addSeat(5000)
	ctx := context.Background()

	_, _, err := f.svc.RequestSeat(ctx, 7, seat.ID, 1)
	require.NoError(t, err)

	_, _, err = f.svc.RequestSeat(ctx, 8, seat.ID, 1)
	assert.ErrorIs(t, err, ErrSeatHeld)

	// A failed request must leave no booking behind.
	pending, err := f.store.BookingsByStatus(ctx, model.BookingStatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestRequestSeatOneActiveBookingPerUser(t *testing.T) {
	f := newFixture(t, holdTTL)
	first := f.store.addSeat(5000)
	second := f.store.addSeat(5000)
	ctx := context.Background()

	_, _, err := f.svc.RequestSeat(ctx, 7, first.ID, 1)
	require.NoError(t, err)

	_, _, err = f.svc.RequestSeat(ctx, 7, second.ID, 1)
	assert.ErrorIs(t, err, ErrActiveBookingExists)

	// Re-requesting the seat the user already holds hits the same
	// guard.
	_, _, err = f.svc.RequestSeat(ctx, 7, first.ID, 1)
	assert.ErrorIs(t, err, ErrActiveBookingExists)
}

func TestRequestSeatAfterHoldExpiry(t *testing.T) {
	f := newFixture(t, holdTTL)
	seat := f.store.addSeat(5000)
	ctx := context.Background()

	b1, _, err := f.svc.RequestSeat(ctx, 7, seat.ID, 1)
	require.NoError(t, err)

	// Inside the TTL the seat stays blocked.
	f.advance(29 * time.Minute)
	_, _, err = f.svc.RequestSeat(ctx, 8, seat.ID, 1)
	require.ErrorIs(t, err, ErrSeatHeld)

	// Past the TTL the in-transaction sweep reclaims the hold and the
	// seat goes to the new requester.
	f.advance(2 * time.Minute)
	b2, _, err := f.svc.RequestSeat(ctx, 8, seat.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(8), b2.UserID)

	// The lapsed request was expired, not left dangling.
	got, err := f.store.BookingByID(ctx, b1.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusExpired, got.Status)
}

func TestRequestSeatBookedSeat(t *testing.T) {
	f := newFixture(t, holdTTL)
	seat := f.store.addSeat(5000)
	ctx := context.Background()

	b, _, err := f.svc.RequestSeat(ctx, 7, seat.ID, 6)
	require.NoError(t, err)
	_, err = f.svc.ApproveRequest(ctx, 100, b.ID, "PAY-1", nil)
	require.NoError(t, err)

	_, _, err = f.svc.RequestSeat(ctx, 8, seat.ID, 1)
	assert.ErrorIs(t, err, ErrSeatBooked)
}

func TestRequestSeatAfterSubscriptionLapses(t *testing.T) {
	f := newFixture(t, holdTTL)
	seat := f.store.addSeat(5000)
	ctx := context.Background()

	b, _, err := f.svc.RequestSeat(ctx, 7, seat.ID, 1)
	require.NoError(t, err)
	_, err = f.svc.ApproveRequest(ctx, 100, b.ID, "PAY-1", nil)
	require.NoError(t, err)

	// One month on, the subscription has ended and the seat is free
	// to request again.
	f.advance(32 * 24 * time.Hour)
	b2, _, err := f.svc.RequestSeat(ctx, 8, seat.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(8), b2.UserID)
}

func TestRequestSeatAgainAfterOwnSubscriptionLapses(t *testing.T) {
	f := newFixture(t, holdTTL)
	first := f.store.addSeat(5000)
	second := f.store.addSeat(5000)
	ctx := context.Background()

	b, _, err := f.svc.RequestSeat(ctx, 7, first.ID, 1)
	require.NoError(t, err)
	_, err = f.svc.ApproveRequest(ctx, 100, b.ID, "PAY-1", nil)
	require.NoError(t, err)

	// Two months on, the subscription has run out.  The old APPROVED
	// row stays as history but must not occupy the user's
	// active-booking slot anymore.
	f.advance(62 * 24 * time.Hour)
	_, err = f.svc.SweepExpired(ctx, time.Time{})
	require.NoError(t, err)

	b2, _, err := f.svc.RequestSeat(ctx, 7, second.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), b2.UserID)

	got, err := f.store.BookingByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusApproved, got.Status)
}

func TestCancelRequest(t *testing.T) {
	f := newFixture(t, holdTTL)
	seat := f.store.addSeat(5000)
	ctx := context.Background()

	b, _, err := f.svc.RequestSeat(ctx, 7, seat.ID, 1)
	require.NoError(t, err)

	got, err := f.svc.CancelRequest(ctx, 7, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCancelled, got.Status)

	// The hold is gone, another user may take the seat immediately.
	_, _, err = f.svc.RequestSeat(ctx, 8, seat.ID, 1)
	assert.NoError(t, err)

	assert.Contains(t, f.pub.types(), queue.EventBookingCancelled)
}

func TestCancelRequestOwnershipAndState(t *testing.T) {
	f := newFixture(t, holdTTL)
	seat := f.store.addSeat(5000)
	ctx := context.Background()

	b, _, err := f.svc.RequestSeat(ctx, 7, seat.ID, 1)
	require.NoError(t, err)

	_, err = f.svc.CancelRequest(ctx, 8, b.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.CancelRequest(ctx, 7, 999)
	assert.ErrorIs(t, err, ErrBookingNotFound)

	_, err = f.svc.CancelRequest(ctx, 7, b.ID)
	require.NoError(t, err)

	// Cancelling twice fails, the booking is no longer pending.
	_, err = f.svc.CancelRequest(ctx, 7, b.ID)
	assert.ErrorIs(t, err, ErrNotPending)
}

func TestApproveRequest(t *testing.T) {
	f := newFixture(t, holdTTL)
	seat := f.store.addSeat(7500)
	ctx := context.Background()

	b, _, err := f.svc.RequestSeat(ctx, 7, seat.ID, 4)
	require.NoError(t, err)

	approvedAt := f.now
	got, err := f.svc.ApproveRequest(ctx, 100, b.ID, "PAY-42", nil)
	require.NoError(t, err)

	assert.Equal(t, model.BookingStatusApproved, got.Status)
	require.NotNil(t, got.BookedAt)
	assert.Equal(t, approvedAt, *got.BookedAt)
	require.NotNil(t, got.SubscriptionEndDate)
	assert.Equal(t, approvedAt.AddDate(0, 4, 0), *got.SubscriptionEndDate)
	require.NotNil(t, got.ApprovedBy)
	assert.Equal(t, uint64(100), *got.ApprovedBy)
	require.NotNil(t, got.PaymentRef)
	assert.Equal(t, "PAY-42", *got.PaymentRef)
	assert.Equal(t, uint32(30000), got.TotalAmountCents)

	// The hold is cleared once approved; the approved booking itself
	// blocks the seat.
	st, err := f.svc.Availability(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, availability.StatusBooked, st[seat.ID])

	assert.Contains(t, f.pub.types(), queue.EventBookingApproved)
}

func TestApproveRequestExplicitEndDate(t *testing.T) {
	f := newFixture(t, holdTTL)
	seat := f.store.addSeat(5000)
	ctx := context.Background()

	b, _, err := f.svc.RequestSeat(ctx, 7, seat.ID, 3)
	require.NoError(t, err)

	// A past override is rejected before any write.
	past := f.now.Add(-time.Hour)
	_, err = f.svc.ApproveRequest(ctx, 100, b.ID, "PAY-1", &past)
	assert.ErrorIs(t, err, ErrInvalidEndDate)

	got, err := f.store.BookingByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusPending, got.Status)

	// A future override replaces the duration-derived end date.
	end := f.now.AddDate(0, 5, 0)
	approved, err := f.svc.ApproveRequest(ctx, 100, b.ID, "PAY-1", &end)
	require.NoError(t, err)
	require.NotNil(t, approved.SubscriptionEndDate)
	assert.Equal(t, end, *approved.SubscriptionEndDate)
}

func TestApproveRequestNonPending(t *testing.T) {
	f := newFixture(t, holdTTL)
	seat := f.store.addSeat(5000)
	ctx := context.Background()

	b, _, err := f.svc.RequestSeat(ctx, 7, seat.ID, 1)
	require.NoError(t, err)
	_, err = f.svc.CancelRequest(ctx, 7, b.ID)
	require.NoError(t, err)

	_, err = f.svc.ApproveRequest(ctx, 100, b.ID, "", nil)
	assert.ErrorIs(t, err, ErrNotPending)

	_, err = f.svc.ApproveRequest(ctx, 100, 999, "", nil)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestApproveAfterSweepExpiredTheRequest(t *testing.T) {
	f := newFixture(t, holdTTL)
	seat := f.store.addSeat(5000)
	ctx := context.Background()

	b, _, err := f.svc.RequestSeat(ctx, 7, seat.ID, 1)
	require.NoError(t, err)

	f.advance(holdTTL + time.Minute)
	_, err = f.svc.SweepExpired(ctx, time.Time{})
	require.NoError(t, err)

	// The sweeper got there first; staff cannot approve a reclaimed
	// request.
	_, err = f.svc.ApproveRequest(ctx, 100, b.ID, "", nil)
	assert.ErrorIs(t, err, ErrNotPending)
}

func TestRejectRequest(t *testing.T) {
	f := newFixture(t, holdTTL)
	seat := f.store.addSeat(5000)
	ctx := context.Background()

	b, _, err := f.svc.RequestSeat(ctx, 7, seat.ID, 1)
	require.NoError(t, err)

	got, err := f.svc.RejectRequest(ctx, 100, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusRejected, got.Status)
	require.NotNil(t, got.ApprovedBy)
	assert.Equal(t, uint64(100), *got.ApprovedBy)

	// Rejection frees the seat right away.
	_, _, err = f.svc.RequestSeat(ctx, 8, seat.ID, 1)
	assert.NoError(t, err)

	assert.Contains(t, f.pub.types(), queue.EventBookingRejected)
}

func TestSweepExpiredCountsAndIdempotency(t *testing.T) {
	f := newFixture(t, holdTTL)
	s1 := f.store.addSeat(5000)
	s2 := f.store.addSeat(5000)
	ctx := context.Background()

	_, _, err := f.svc.RequestSeat(ctx, 7, s1.ID, 1)
	require.NoError(t, err)
	_, _, err = f.svc.RequestSeat(ctx, 8, s2.ID, 1)
	require.NoError(t, err)

	f.advance(holdTTL + time.Second)

	res, err := f.svc.SweepExpired(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.ReleasedHolds)
	assert.Equal(t, 2, res.CancelledBookings)

	// A second sweep finds nothing; the first already reclaimed
	// everything.
	res, err = f.svc.SweepExpired(ctx, time.Time{})
	require.NoError(t, err)
	assert.Zero(t, res.ReleasedHolds)
	assert.Zero(t, res.CancelledBookings)

	assert.Contains(t, f.pub.types(), queue.EventSweepCompleted)
}

func TestSweepLeavesLiveHoldsAlone(t *testing.T) {
	f := newFixture(t, holdTTL)
	s1 := f.store.addSeat(5000)
	s2 := f.store.addSeat(5000)
	ctx := context.Background()

	_, _, err := f.svc.RequestSeat(ctx, 7, s1.ID, 1)
	require.NoError(t, err)

	f.advance(20 * time.Minute)
	b2, _, err := f.svc.RequestSeat(ctx, 8, s2.ID, 1)
	require.NoError(t, err)

	// Only the first hold has lapsed at +31m.
	f.advance(11 * time.Minute)
	res, err := f.svc.SweepExpired(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.ReleasedHolds)
	assert.Equal(t, 1, res.CancelledBookings)

	got, err := f.store.BookingByID(ctx, b2.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusPending, got.Status)
}

func TestAvailabilitySnapshot(t *testing.T) {
	f := newFixture(t, holdTTL)
	vacant := f.store.addSeat(5000)
	held := f.store.addSeat(5000)
	booked := f.store.addSeat(5000)
	ctx := context.Background()

	_, _, err := f.svc.RequestSeat(ctx, 7, held.ID, 1)
	require.NoError(t, err)

	b, _, err := f.svc.RequestSeat(ctx, 8, booked.ID, 6)
	require.NoError(t, err)
	_, err = f.svc.ApproveRequest(ctx, 100, b.ID, "PAY-1", nil)
	require.NoError(t, err)

	st, err := f.svc.Availability(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, st, 3)
	assert.Equal(t, availability.StatusVacant, st[vacant.ID])
	assert.Equal(t, availability.StatusHeld, st[held.ID])
	assert.Equal(t, availability.StatusBooked, st[booked.ID])

	// Past the hold TTL the held seat reads vacant again.
	f.advance(holdTTL + time.Minute)
	st, err = f.svc.Availability(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, availability.StatusVacant, st[held.ID])
	assert.Equal(t, availability.StatusBooked, st[booked.ID])
}

func TestConcurrentRequestsOneWinner(t *testing.T) {
	f := newFixture(t, holdTTL)
	seat := f.store.addSeat(5000)
	ctx := context.Background()

	const contenders = 16
	errs := make([]error, contenders)
	var wg sync.WaitGroup
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = f.svc.RequestSeat(ctx, uint64(i+1), seat.ID, 1)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, ErrSeatHeld)
		}
	}
	assert.Equal(t, 1, winners)

	pending, err := f.store.BookingsByStatus(ctx, model.BookingStatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	f := newFixture(t, holdTTL)
	seat := f.store.addSeat(5000)
	f.svc = NewService(f.store, failingPublisher{}, holdTTL).WithClock(func() time.Time { return f.now })

	_, _, err := f.svc.RequestSeat(context.Background(), 7, seat.ID, 1)
	assert.NoError(t, err)
}

type failingPublisher struct{}

func (failingPublisher) PublishSeatEvent(ctx context.Context, ev queue.SeatEvent) error {
	return context.DeadlineExceeded
}

func TestBookingForUserOwnership(t *testing.T) {
	f := newFixture(t, holdTTL)
	seat := f.store.addSeat(5000)
	ctx := context.Background()

	b, _, err := f.svc.RequestSeat(ctx, 7, seat.ID, 1)
	require.NoError(t, err)

	got, err := f.svc.BookingForUser(ctx, 7, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	_, err = f.svc.BookingForUser(ctx, 8, b.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}
