package handler

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"github.com/arlenko/bookery/internal/repository"
	"github.com/labstack/echo/v4"
)

// CreateEvent handles POST /v1/experiences/:id/events. The event's
// base_price_cents is the per-ticket price sessions fall back to when
// they carry no override; max_capacity may be omitted to inherit the
// experience capacity.
func (h *OwnerHandler) CreateEvent(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	expID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || expID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid experience id"})
	}
	var body struct {
		Title          string `json:"title"`
		BasePriceCents int64  `json:"base_price_cents"`
		MaxCapacity    *int   `json:"max_capacity"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	title := strings.TrimSpace(body.Title)
	if title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}
	if body.BasePriceCents < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "base_price_cents must not be negative"})
	}
	if body.MaxCapacity != nil && *body.MaxCapacity <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "max_capacity must be positive"})
	}
	// ownership check through the experience
	if _, err := h.ExperienceRepo.GetByIDAndOwner(c.Request().Context(), expID, ownerID); err != nil {
		if err == repository.ErrExperienceNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "experience not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	ev := &repository.Event{
		ExperienceID:   expID,
		Title:          title,
		BasePriceCents: body.BasePriceCents,
		MaxCapacity:    body.MaxCapacity,
	}
	if err := h.EventRepo.Create(c.Request().Context(), ev); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create event"})
	}
	return c.JSON(http.StatusCreated, ev)
}

// UpdateEvent handles PUT /v1/events/:id. Price changes affect only
// future bookings; existing ones keep their captured unit prices.
func (h *OwnerHandler) UpdateEvent(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Title          string `json:"title"`
		BasePriceCents int64  `json:"base_price_cents"`
		MaxCapacity    *int   `json:"max_capacity"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	title := strings.TrimSpace(body.Title)
	if title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}
	if body.BasePriceCents < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "base_price_cents must not be negative"})
	}
	if body.MaxCapacity != nil && *body.MaxCapacity <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "max_capacity must be positive"})
	}
	ev, err := h.EventRepo.GetByIDAndOwner(c.Request().Context(), id, ownerID)
	if err != nil {
		if err == repository.ErrEventNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	ev.Title = title
	ev.BasePriceCents = body.BasePriceCents
	ev.MaxCapacity = body.MaxCapacity
	if err := h.EventRepo.Update(c.Request().Context(), ev, ownerID); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	updated, _ := h.EventRepo.GetByID(c.Request().Context(), id)
	return c.JSON(http.StatusOK, updated)
}

// ListEvents handles GET /v1/experiences/:id/events for the owner.
func (h *OwnerHandler) ListEvents(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	expID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || expID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid experience id"})
	}
	if _, err := h.ExperienceRepo.GetByIDAndOwner(c.Request().Context(), expID, ownerID); err != nil {
		if err == repository.ErrExperienceNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "experience not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	items, err := h.EventRepo.ListByExperience(c.Request().Context(), expID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
