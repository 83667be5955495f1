// Package handler contains the HTTP handlers for the seat booking
// API.  Handlers bind/validate input, call into the booking service
// or repositories, and translate domain errors to HTTP responses.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health responds with a simple status payload, used by load
// balancers and container probes.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
