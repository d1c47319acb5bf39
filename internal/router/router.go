package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql"

	"github.com/labstack/echo/v4"

	"github.com/arlenko/bookery/internal/handler"
	"github.com/arlenko/bookery/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	e.GET("/healthz", handler.NewHealth(db))
}

// RegisterAuth registers all authentication-related routes and applies
// the necessary middleware. Unauthenticated operations live under
// /v1/auth, while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Group under /v1/auth for operations that do not require an existing
	// session (register, login, refresh). Each of these handlers is
	// responsible for generating or exchanging tokens.
	g := e.Group("/v1/auth")
	// Registration creates the owner account together with its business.
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// RefreshAccess issues a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts a refresh_token body or a bare Bearer header; it does
	// not require the JWT middleware.
	g.POST("/logout", a.Logout)

	// Routes requiring a valid access token. All handlers registered on
	// this group execute the JWTAuth middleware before being invoked.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	// Every authenticated account is an OWNER; the middleware still
	// rejects requests with missing or unknown roles.
	auth.Use(middleware.RequireRole("OWNER"))
	auth.GET("/me", a.Me)

	// Alias so clients can call either /v1/auth/logout or /v1/logout with a
	// valid refresh token in the body to terminate a session.
	e.POST("/v1/logout", a.Logout)
}

// RegisterPublic registers unauthenticated browse endpoints on the
// provided Echo instance. The provided PublicHandler exposes handlers
// that return sanitized data for experiences, events, sessions and
// add-ons. These routes do not apply any JWT or role middleware and
// are intended for guest users.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler) {
	// Expose list of all experiences
	e.GET("/v1/experiences", p.GetPublicExperiences)
	// List events of a specific experience
	e.GET("/v1/experiences/:id/events", p.GetPublicEventsByExperience)
	// List sessions of an event with capacity, remaining spots and price
	e.GET("/v1/events/:id/sessions", p.GetPublicSessionsByEvent)
	// List the active add-ons bookable with an event's sessions
	e.GET("/v1/events/:id/add-ons", p.GetPublicAddOnsByEvent)
}
