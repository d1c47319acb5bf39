package router // router defines how HTTP routes are registered for the API

import (
	"github.com/arlenko/bookery/internal/handler"    // owner handlers
	"github.com/arlenko/bookery/internal/middleware" // JWT + role middlewares
	"github.com/labstack/echo/v4"
)

// RegisterOwner registers OWNER-scoped endpoints under /v1.
// All routes require a valid JWT and OWNER role.
func RegisterOwner(e *echo.Echo, o *handler.OwnerHandler, jwtSecret string) {
	// Attach middlewares at group construction time for clarity.
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("OWNER"),
	)

	// ---- Business ----
	g.GET("/business", o.GetBusiness)
	g.PUT("/business", o.UpdateBusiness)

	// ---- Experiences ----
	g.POST("/experiences", o.CreateExperience)
	// NOTE: GET /v1/experiences is handled by the public browse API. The
	// owner-scoped listing lives under /my/experiences to avoid a route
	// conflict with the public handler.
	g.GET("/my/experiences", o.ListExperiences)
	g.GET("/experiences/:id", o.GetExperience)
	g.PUT("/experiences/:id", o.UpdateExperience)
	g.PATCH("/experiences/:id", o.UpdateExperience) // allow partial/semantic updates via PATCH as well
	g.DELETE("/experiences/:id", o.DeleteExperience)

	// ---- Events ----
	g.POST("/experiences/:id/events", o.CreateEvent)
	// NOTE: GET /v1/experiences/:id/events is provided by the public API;
	// the owner variant lives under /my to avoid the conflict.
	g.GET("/my/experiences/:id/events", o.ListEvents)
	g.PUT("/events/:id", o.UpdateEvent)
	g.PATCH("/events/:id", o.UpdateEvent)
	g.DELETE("/events/:id", o.DeleteEvent)

	// ---- Sessions ----
	g.POST("/events/:id/sessions", o.CreateSession)
	// NOTE: GET /v1/events/:id/sessions is provided by the public API.
	g.GET("/my/events/:id/sessions", o.ListSessions)
	g.PUT("/sessions/:id", o.UpdateSession)
	g.PATCH("/sessions/:id", o.UpdateSession)
	g.DELETE("/sessions/:id", o.DeleteSession)

	// ---- Guests ----
	g.POST("/guests", o.CreateGuest)
	g.GET("/guests", o.ListGuests)
	g.PUT("/guests/:id", o.UpdateGuest)
	g.PATCH("/guests/:id", o.UpdateGuest)
	g.GET("/guests/:id/bookings", o.GetGuestBookings)

	// ---- Add-ons ----
	g.POST("/add-ons", o.CreateAddOn)
	g.GET("/add-ons", o.ListAddOns)
	g.PUT("/add-ons/:id", o.UpdateAddOn)
	g.PATCH("/add-ons/:id", o.UpdateAddOn)
	g.DELETE("/add-ons/:id", o.DeleteAddOn)

	// ---- Booking ledger ----
	g.POST("/sessions/:id/bookings", o.CreateBooking)
	g.GET("/sessions/:id/bookings", o.ListSessionBookings)
	g.GET("/bookings/:id", o.GetBooking)
	g.PATCH("/bookings/:id/quantity", o.ChangeBookingQuantity)
	g.PATCH("/bookings/:id/status", o.ChangeBookingStatus)
}
