package middleware

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// userID extracts the authenticated user id from the context, set by
// JWTAuth.  Unauthenticated requests resolve to "guest" so public
// routes still get a usable rate-limit key.
func userID(c echo.Context) string {
	v := c.Get("user_id")
	if v == nil {
		return "guest"
	}
	switch id := v.(type) {
	case string:
		if id == "" {
			return "guest"
		}
		return id
	case float64:
		return fmt.Sprintf("%.0f", id)
	case int:
		return fmt.Sprintf("%d", id)
	case int64:
		return fmt.Sprintf("%d", id)
	case uint64:
		return fmt.Sprintf("%d", id)
	default:
		return "guest"
	}
}
