package middleware

// Caller identity for rate-limit and cache keys. The limiter runs
// before JWTAuth on public routes, so the helper tolerates both an
// already-extracted user_id and a raw parsed token, falling back to
// "anon" for unauthenticated traffic.

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func currentUserID(c echo.Context) string {
	if s, ok := c.Get("user_id").(string); ok && s != "" {
		return s
	}
	if tok, ok := c.Get("user").(*jwt.Token); ok {
		if cl, ok := tok.Claims.(jwt.MapClaims); ok {
			if v, ok := cl["sub"].(string); ok && v != "" {
				return v
			}
		}
	}
	return "anon"
}
