package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-seat-booking/internal/booking"
	"github.com/iliyamo/library-seat-booking/internal/model"
)

// AdminBookingHandler serves the counter-staff endpoints: reviewing
// pending requests, approving or rejecting them, provisioning seats,
// and forcing an expiry sweep.
type AdminBookingHandler struct {
	Svc *booking.Service
}

func NewAdminBookingHandler(svc *booking.Service) *AdminBookingHandler {
	return &AdminBookingHandler{Svc: svc}
}

type approveReq struct {
	PaymentRef string `json:"payment_ref"`
	// Optional override; when absent the subscription runs for the
	// requested number of months from approval.
	SubscriptionEndDate *time.Time `json:"subscription_end_date"`
}

type createSeatReq struct {
	SeatNumber       string `json:"seat_number"`
	Section          string `json:"section"`
	RowLabel         string `json:"row_label"`
	MonthlyRateCents uint32 `json:"monthly_rate_cents"`
}

// adminBookingView extends the client view with review metadata.
type adminBookingView struct {
	bookingView
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	ApprovedBy *uint64    `json:"approved_by,omitempty"`
	PaymentRef *string    `json:"payment_ref,omitempty"`
}

func toAdminBookingView(b model.Booking) adminBookingView {
	return adminBookingView{
		bookingView: toBookingView(b),
		ApprovedAt:  b.ApprovedAt,
		ApprovedBy:  b.ApprovedBy,
		PaymentRef:  b.PaymentRef,
	}
}

var validListStatuses = map[string]bool{
	model.BookingStatusPending:   true,
	model.BookingStatusApproved:  true,
	model.BookingStatusRejected:  true,
	model.BookingStatusCancelled: true,
	model.BookingStatusExpired:   true,
}

// List returns bookings filtered by status, oldest first so staff
// work the queue in arrival order.  Defaults to PENDING.
func (h *AdminBookingHandler) List(c echo.Context) error {
	status := strings.ToUpper(strings.TrimSpace(c.QueryParam("status")))
	if status == "" {
		status = model.BookingStatusPending
	}
	if !validListStatuses[status] {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}

	bs, err := h.Svc.BookingsByStatus(c.Request().Context(), status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load bookings"})
	}
	out := make([]adminBookingView, 0, len(bs))
	for _, b := range bs {
		out = append(out, toAdminBookingView(b))
	}
	return c.JSON(http.StatusOK, echo.Map{"status": status, "bookings": out})
}

// Approve confirms a pending request.  The subscription starts now
// and runs for the requested number of months unless the body carries
// an explicit subscription_end_date; the payment reference records
// the offline transaction.
func (h *AdminBookingHandler) Approve(c echo.Context) error {
	adminID, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req approveReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	b, err := h.Svc.ApproveRequest(c.Request().Context(), adminID, id, strings.TrimSpace(req.PaymentRef), req.SubscriptionEndDate)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrInvalidEndDate):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "subscription_end_date must be in the future"})
		case errors.Is(err, booking.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case errors.Is(err, booking.ErrNotPending):
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking is no longer pending"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not approve booking"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": toAdminBookingView(b)})
}

// Reject declines a pending request and releases the seat hold.
func (h *AdminBookingHandler) Reject(c echo.Context) error {
	adminID, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	b, err := h.Svc.RejectRequest(c.Request().Context(), adminID, id)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case errors.Is(err, booking.ErrNotPending):
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking is no longer pending"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not reject booking"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": toAdminBookingView(b)})
}

// Sweep runs an expiry sweep immediately and reports what was
// reclaimed.  The scheduled sweeper makes this optional; it exists
// for operational poking.
func (h *AdminBookingHandler) Sweep(c echo.Context) error {
	res, err := h.Svc.SweepExpired(c.Request().Context(), time.Time{})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "sweep failed"})
	}
	return c.JSON(http.StatusOK, res)
}

// CreateSeat provisions a new seat in the catalog.
func (h *AdminBookingHandler) CreateSeat(c echo.Context) error {
	var req createSeatReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.SeatNumber = strings.TrimSpace(req.SeatNumber)
	req.Section = strings.TrimSpace(req.Section)
	if req.SeatNumber == "" || req.Section == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_number and section are required"})
	}
	if req.MonthlyRateCents == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "monthly_rate_cents must be positive"})
	}

	seat := model.Seat{
		SeatNumber:       req.SeatNumber,
		Section:          req.Section,
		RowLabel:         strings.TrimSpace(req.RowLabel),
		MonthlyRateCents: req.MonthlyRateCents,
		IsActive:         true,
	}
	if err := h.Svc.CreateSeat(c.Request().Context(), &seat); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create seat"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"seat": toSeatView(seat)})
}
