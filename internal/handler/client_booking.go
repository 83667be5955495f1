package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-seat-booking/internal/booking"
	"github.com/iliyamo/library-seat-booking/internal/model"
)

// ClientBookingHandler serves the client-facing booking endpoints:
// requesting a seat, cancelling a pending request, and listing own
// bookings.
type ClientBookingHandler struct {
	Svc *booking.Service
}

func NewClientBookingHandler(svc *booking.Service) *ClientBookingHandler {
	return &ClientBookingHandler{Svc: svc}
}

type requestSeatReq struct {
	SeatID         uint64 `json:"seat_id"`
	DurationMonths uint32 `json:"duration_months"`
}

type bookingView struct {
	ID                  uint64     `json:"id"`
	SeatID              uint64     `json:"seat_id"`
	UserID              uint64     `json:"user_id"`
	Status              string     `json:"status"`
	DurationMonths      uint32     `json:"duration_months"`
	RequestedAt         time.Time  `json:"requested_at"`
	BookedAt            *time.Time `json:"booked_at,omitempty"`
	SubscriptionEndDate *time.Time `json:"subscription_end_date,omitempty"`
	TotalAmountCents    uint32     `json:"total_amount_cents"`
}

func toBookingView(b model.Booking) bookingView {
	return bookingView{
		ID:                  b.ID,
		SeatID:              b.SeatID,
		UserID:              b.UserID,
		Status:              b.Status,
		DurationMonths:      b.DurationMonths,
		RequestedAt:         b.RequestedAt,
		BookedAt:            b.BookedAt,
		SubscriptionEndDate: b.SubscriptionEndDate,
		TotalAmountCents:    b.TotalAmountCents,
	}
}

// Create requests a seat for the authenticated client.  On success
// the booking is PENDING and the seat is held until an admin decides
// or the hold expires.
func (h *ClientBookingHandler) Create(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req requestSeatReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.SeatID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_id is required"})
	}

	b, hold, err := h.Svc.RequestSeat(c.Request().Context(), uid, req.SeatID, req.DurationMonths)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrInvalidDuration):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "duration_months must be between 1 and 12"})
		case errors.Is(err, booking.ErrSeatNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
		case errors.Is(err, booking.ErrSeatHeld), errors.Is(err, booking.ErrSeatBooked):
			return c.JSON(http.StatusConflict, echo.Map{"error": "seat no longer available, choose another"})
		case errors.Is(err, booking.ErrActiveBookingExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "you already have a pending or active booking"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create booking"})
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"booking":         toBookingView(b),
		"hold_expires_at": hold.ExpiresAt,
	})
}

// Cancel withdraws the authenticated client's own pending request and
// releases the seat hold.
func (h *ClientBookingHandler) Cancel(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	b, err := h.Svc.CancelRequest(c.Request().Context(), uid, id)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case errors.Is(err, booking.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your booking"})
		case errors.Is(err, booking.ErrNotPending):
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking is no longer pending"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not cancel booking"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": toBookingView(b)})
}

// ListMine returns the authenticated client's bookings, newest first.
func (h *ClientBookingHandler) ListMine(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bs, err := h.Svc.BookingsByUser(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load bookings"})
	}
	out := make([]bookingView, 0, len(bs))
	for _, b := range bs {
		out = append(out, toBookingView(b))
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}

// Get returns one of the authenticated client's bookings by id.
func (h *ClientBookingHandler) Get(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	b, err := h.Svc.BookingForUser(c.Request().Context(), uid, id)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case errors.Is(err, booking.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your booking"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load booking"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": toBookingView(b)})
}
