package handler

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/arlenko/bookery/internal/repository"
	"github.com/labstack/echo/v4"
)

// dbTimeLayout is the MySQL DATETIME layout the repositories store.
const dbTimeLayout = "2006-01-02 15:04:05"

// parseSessionTime accepts RFC3339 input from clients and converts it
// to the DB layout in UTC.
func parseSessionTime(raw string) (string, bool) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	return t.UTC().Format(dbTimeLayout), true
}

// CreateSession handles POST /v1/events/:id/sessions. Both price_cents
// and max_capacity are optional overrides; omitted values fall back to
// the event and experience.
func (h *OwnerHandler) CreateSession(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || eventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var body struct {
		StartsAt    string `json:"starts_at"`
		EndsAt      string `json:"ends_at"`
		PriceCents  *int64 `json:"price_cents"`
		MaxCapacity *int   `json:"max_capacity"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	startsAt, ok := parseSessionTime(body.StartsAt)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be RFC3339"})
	}
	endsAt, ok := parseSessionTime(body.EndsAt)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must be RFC3339"})
	}
	if endsAt <= startsAt {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must be after starts_at"})
	}
	if body.PriceCents != nil && *body.PriceCents < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price_cents must not be negative"})
	}
	if body.MaxCapacity != nil && *body.MaxCapacity <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "max_capacity must be positive"})
	}
	if _, err := h.EventRepo.GetByIDAndOwner(c.Request().Context(), eventID, ownerID); err != nil {
		if err == repository.ErrEventNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	s := &repository.Session{
		EventID:     eventID,
		StartsAt:    startsAt,
		EndsAt:      endsAt,
		PriceCents:  body.PriceCents,
		MaxCapacity: body.MaxCapacity,
	}
	if err := h.SessionRepo.Create(c.Request().Context(), s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create session"})
	}
	return c.JSON(http.StatusCreated, sessionResp(s))
}

// UpdateSession handles PUT /v1/sessions/:id. The committed counter is
// owned by the ledger and cannot be edited here; capacity overrides may
// shrink below current occupancy, existing bookings are never evicted.
func (h *OwnerHandler) UpdateSession(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		StartsAt    string `json:"starts_at"`
		EndsAt      string `json:"ends_at"`
		PriceCents  *int64 `json:"price_cents"`
		MaxCapacity *int   `json:"max_capacity"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	startsAt, ok := parseSessionTime(body.StartsAt)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be RFC3339"})
	}
	endsAt, ok := parseSessionTime(body.EndsAt)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must be RFC3339"})
	}
	if endsAt <= startsAt {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must be after starts_at"})
	}
	if body.PriceCents != nil && *body.PriceCents < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price_cents must not be negative"})
	}
	if body.MaxCapacity != nil && *body.MaxCapacity <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "max_capacity must be positive"})
	}
	s := &repository.Session{
		ID:          id,
		StartsAt:    startsAt,
		EndsAt:      endsAt,
		PriceCents:  body.PriceCents,
		MaxCapacity: body.MaxCapacity,
	}
	if err := h.SessionRepo.Update(c.Request().Context(), s, ownerID); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	updated, err := h.SessionRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, sessionResp(updated))
}

// ListSessions handles GET /v1/events/:id/sessions for the owner. The
// response carries resolved capacity, availability and effective price
// for each session.
func (h *OwnerHandler) ListSessions(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || eventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	if _, err := h.EventRepo.GetByIDAndOwner(c.Request().Context(), eventID, ownerID); err != nil {
		if err == repository.ErrEventNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	items, err := h.SessionRepo.ListByEventWithAvailability(c.Request().Context(), eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// sessionResp shapes a session row for JSON output, converting DB
// timestamps to RFC3339.
func sessionResp(s *repository.Session) echo.Map {
	return echo.Map{
		"id":            s.ID,
		"event_id":      s.EventID,
		"starts_at":     dbTimeToRFC3339(s.StartsAt),
		"ends_at":       dbTimeToRFC3339(s.EndsAt),
		"price_cents":   s.PriceCents,
		"max_capacity":  s.MaxCapacity,
		"committed_qty": s.CommittedQty,
		"created_at":    s.CreatedAt,
		"updated_at":    s.UpdatedAt,
	}
}

// dbTimeToRFC3339 converts a stored DATETIME string to RFC3339 UTC,
// passing the raw value through when it does not parse.
func dbTimeToRFC3339(raw string) string {
	t, err := time.Parse(dbTimeLayout, raw)
	if err != nil {
		return raw
	}
	return t.UTC().Format(time.RFC3339)
}
