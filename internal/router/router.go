// Package router wires the HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/shutterbloom/booking-api/internal/handler"
)

// Deps carries everything route registration needs.
type Deps struct {
	Auth   *handler.AuthHandler
	Events *handler.EventHandler
	Leads  *handler.LeadHandler

	// Guard authenticates protected routes; RateLimit throttles the
	// abuse-prone public endpoints. Either may be a pass-through.
	Guard     echo.MiddlewareFunc
	RateLimit echo.MiddlewareFunc
}

// Register mounts the full API surface. Everything except the health check
// lives under the /api prefix.
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)

	api := e.Group("/api")

	// Account and session endpoints. Login and lead capture are the two
	// endpoints worth brute-forcing, so both are rate limited.
	api.POST("/users/", d.Auth.Register)
	api.POST("/login", d.Auth.Login, d.RateLimit)
	api.POST("/refresh-token", d.Auth.Refresh)
	api.POST("/logout", d.Auth.Logout, d.Guard)

	// Event CRUD, all owner-scoped behind the access guard.
	events := api.Group("/events", d.Guard)
	events.GET("/", d.Events.List)
	events.POST("/", d.Events.Create)
	events.GET("/:id", d.Events.Get)
	events.PATCH("/:id", d.Events.Update)
	events.DELETE("/:id", d.Events.Delete)

	// Lead capture is public; listing is not.
	api.POST("/leads/", d.Leads.Create, d.RateLimit)
	api.GET("/leads/", d.Leads.List, d.Guard)
}
