// Package handler exposes HTTP handlers for both authenticated and public endpoints.
// This file defines handlers for the public browsing API. These routes allow
// unauthenticated users to browse experiences, events, sessions and add-ons
// without requiring authentication. Sensitive fields (owner IDs, committed
// counters, etc.) are filtered from responses.

package handler

import (
	"net/http"
	"strconv"

	"github.com/arlenko/bookery/internal/repository"
	"github.com/labstack/echo/v4"
)

// PublicHandler aggregates repositories needed for unauthenticated browsing.
// It produces sanitized responses suitable for public consumption.
type PublicHandler struct {
	ExperienceRepo *repository.ExperienceRepo // provides access to experience data
	EventRepo      *repository.EventRepo      // provides access to event data
	SessionRepo    *repository.SessionRepo    // provides access to session data
	AddOnRepo      *repository.AddOnRepo      // provides access to add-on data
}

// PublicExperience represents an experience exposed via the public API.
// It contains only safe fields.
type PublicExperience struct {
	ID          uint64 `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// PublicEvent represents an event in list responses.
type PublicEvent struct {
	ID             uint64 `json:"id"`
	Title          string `json:"title"`
	BasePriceCents int64  `json:"base_price_cents"`
}

// PublicAddOn represents an active add-on offered with an event.
type PublicAddOn struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
}

// GetPublicExperiences returns all experiences accessible to
// unauthenticated users. Response JSON contains an "items" array of
// PublicExperience.
func (h *PublicHandler) GetPublicExperiences(c echo.Context) error {
	ctx := c.Request().Context()
	experiences, err := h.ExperienceRepo.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]PublicExperience, 0, len(experiences))
	for _, e := range experiences {
		out = append(out, PublicExperience{ID: e.ID, Title: e.Title, Description: e.Description})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetPublicEventsByExperience lists events of an experience for
// unauthenticated users. It validates the experience exists, then
// returns only non-sensitive fields.
func (h *PublicHandler) GetPublicEventsByExperience(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	// ensure experience exists
	if _, err := h.ExperienceRepo.GetByID(ctx, id); err != nil {
		if err == repository.ErrExperienceNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "experience not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	events, err := h.EventRepo.ListByExperience(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]PublicEvent, 0, len(events))
	for _, ev := range events {
		out = append(out, PublicEvent{ID: ev.ID, Title: ev.Title, BasePriceCents: ev.BasePriceCents})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetPublicSessionsByEvent lists sessions of an event together with the
// resolved capacity, remaining spots and effective price. The counts
// are a snapshot, not a reservation; a concurrent booking can consume
// the spots before the client acts on them.
func (h *PublicHandler) GetPublicSessionsByEvent(c echo.Context) error {
	ctx := c.Request().Context()
	eventID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	// ensure event exists
	if _, err := h.EventRepo.GetByID(ctx, eventID); err != nil {
		if err == repository.ErrEventNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	sessions, err := h.SessionRepo.ListByEventWithAvailability(ctx, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	for i := range sessions {
		sessions[i].StartsAt = dbTimeToRFC3339(sessions[i].StartsAt)
		sessions[i].EndsAt = dbTimeToRFC3339(sessions[i].EndsAt)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": sessions})
}

// GetPublicAddOnsByEvent lists the active add-ons a booking on the
// event may attach: event-scoped ones plus business-wide ones.
func (h *PublicHandler) GetPublicAddOnsByEvent(c echo.Context) error {
	ctx := c.Request().Context()
	eventID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if _, err := h.EventRepo.GetByID(ctx, eventID); err != nil {
		if err == repository.ErrEventNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	addOns, err := h.AddOnRepo.ListActiveForEvent(ctx, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]PublicAddOn, 0, len(addOns))
	for _, a := range addOns {
		out = append(out, PublicAddOn{ID: a.ID, Name: a.Name, PriceCents: a.PriceCents})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}
