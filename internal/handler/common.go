package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// getUserID reads the authenticated user id that JWTAuth stored in
// the context.  JWT numeric claims decode as float64, other paths may
// store typed ints, so all plausible types are handled.
func getUserID(c echo.Context) (uint64, bool) {
	v := c.Get("user_id")
	switch id := v.(type) {
	case uint64:
		return id, true
	case int64:
		if id < 0 {
			return 0, false
		}
		return uint64(id), true
	case int:
		if id < 0 {
			return 0, false
		}
		return uint64(id), true
	case float64:
		if id < 0 {
			return 0, false
		}
		return uint64(id), true
	case string:
		n, err := strconv.ParseUint(id, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// pathID parses the :id route parameter.
func pathID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}
