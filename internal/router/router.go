// Package router wires HTTP routes to their handlers and attaches
// the per-group middleware chain.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/library-seat-booking/internal/config"
	"github.com/iliyamo/library-seat-booking/internal/handler"
	"github.com/iliyamo/library-seat-booking/internal/middleware"
)

// RegisterRoutes mounts unauthenticated service routes.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth mounts the authentication endpoints under /v1/auth.
func RegisterAuth(e *echo.Echo, h *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/refresh", h.Refresh)
	g.POST("/logout", h.Logout)
	g.GET("/me", h.Me, middleware.JWTAuth(jwtSecret))
}

// RegisterPublic mounts the public seat catalog and availability
// routes.  The catalog response is cached in Redis; availability is
// served live so holds and decisions show immediately.
func RegisterPublic(e *echo.Echo, h *handler.SeatHandler, cacheCfg config.CacheConfig, rdb *redis.Client) {
	g := e.Group("/v1/seats")
	g.GET("", h.List, middleware.NewRedisCache(cacheCfg, rdb))
	g.GET("/availability", h.Availability)
}

// RegisterClient mounts the authenticated client booking routes.
func RegisterClient(e *echo.Echo, h *handler.ClientBookingHandler, jwtSecret string) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret), middleware.RequireRole("CLIENT"))
	g.POST("/bookings", h.Create)
	g.DELETE("/bookings/:id", h.Cancel)
	g.GET("/bookings/:id", h.Get)
	g.GET("/my-bookings", h.ListMine)
}

// RegisterAdmin mounts the staff endpoints under /v1/admin.
func RegisterAdmin(e *echo.Echo, h *handler.AdminBookingHandler, jwtSecret string) {
	g := e.Group("/v1/admin", middleware.JWTAuth(jwtSecret), middleware.RequireRole("ADMIN"))
	g.GET("/bookings", h.List)
	g.POST("/bookings/:id/approve", h.Approve)
	g.POST("/bookings/:id/reject", h.Reject)
	g.POST("/sweep", h.Sweep)
	g.POST("/seats", h.CreateSeat)
}
