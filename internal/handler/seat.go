package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-seat-booking/internal/booking"
	"github.com/iliyamo/library-seat-booking/internal/model"
)

// SeatHandler serves the public seat catalog and the derived
// availability map.
type SeatHandler struct {
	Svc *booking.Service
}

func NewSeatHandler(svc *booking.Service) *SeatHandler {
	return &SeatHandler{Svc: svc}
}

type seatView struct {
	ID               uint64 `json:"id"`
	SeatNumber       string `json:"seat_number"`
	Section          string `json:"section"`
	RowLabel         string `json:"row_label"`
	MonthlyRateCents uint32 `json:"monthly_rate_cents"`
}

func toSeatView(s model.Seat) seatView {
	return seatView{
		ID:               s.ID,
		SeatNumber:       s.SeatNumber,
		Section:          s.Section,
		RowLabel:         s.RowLabel,
		MonthlyRateCents: s.MonthlyRateCents,
	}
}

// List returns the active seat catalog ordered by section, row and
// seat number.  Suitable for response caching, the catalog only
// changes when an admin provisions seats.
func (h *SeatHandler) List(c echo.Context) error {
	seats, err := h.Svc.Seats(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load seats"})
	}
	out := make([]seatView, 0, len(seats))
	for _, s := range seats {
		out = append(out, toSeatView(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"seats": out})
}

// Availability returns the status of every active seat.  An optional
// ?at= query (RFC 3339) evaluates availability at a different
// instant; defaults to now.  Expired holds never surface here even if
// the sweeper has not run yet.
func (h *SeatHandler) Availability(c echo.Context) error {
	now := time.Now().UTC()
	if at := c.QueryParam("at"); at != "" {
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "at must be RFC 3339, e.g. 2026-08-28T10:00:00Z"})
		}
		now = t.UTC()
	}

	statuses, err := h.Svc.Availability(c.Request().Context(), now)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not resolve availability"})
	}

	out := make(map[uint64]string, len(statuses))
	for seatID, st := range statuses {
		out[seatID] = string(st)
	}
	return c.JSON(http.StatusOK, echo.Map{"at": now, "seats": out})
}
