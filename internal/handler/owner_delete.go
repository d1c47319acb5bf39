// Package handler defines HTTP handlers for authenticated OWNER operations.
// This file implements DELETE endpoints allowing an owner to remove
// experiences, events, sessions and add-ons that they own. Cascading
// deletions are performed in the repository layer to ensure dependent
// records are cleaned up. Appropriate HTTP status codes are returned
// when resources are missing, not owned by the current user or cannot
// be deleted due to conflicts (e.g. existing bookings).
package handler

import (
	"database/sql" // sentinel errors such as sql.ErrNoRows
	"net/http"     // status code constants
	"strconv"      // string-to-integer conversion

	"github.com/arlenko/bookery/internal/repository" // repository defines error types
	"github.com/labstack/echo/v4"                    // echo provides request/response handling
)

// DeleteExperience handles DELETE /v1/experiences/:id. It removes the
// experience and all dependent events, sessions and event-scoped
// add-ons if it belongs to the authenticated owner and no booking
// exists anywhere underneath it. Returns 204 on success, 404 if not
// found, 403 for foreign ownership and 409 when bookings exist.
func (h *OwnerHandler) DeleteExperience(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	err = h.ExperienceRepo.DeleteByIDAndOwner(c.Request().Context(), id, ownerID)
	if err != nil {
		switch err {
		case repository.ErrExperienceNotFound, sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "experience not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "cannot delete experience with bookings"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteEvent handles DELETE /v1/events/:id. Removes the event with its
// sessions and event-scoped add-ons. Aborts with 409 when any session
// of the event carries bookings.
func (h *OwnerHandler) DeleteEvent(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	err = h.EventRepo.DeleteByIDAndOwner(c.Request().Context(), id, ownerID)
	if err != nil {
		switch err {
		case repository.ErrEventNotFound, sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "cannot delete event with bookings"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteSession handles DELETE /v1/sessions/:id. A session with any
// booking, cancelled ones included, cannot be deleted because the
// booking history references it.
func (h *OwnerHandler) DeleteSession(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	err = h.SessionRepo.DeleteByIDAndOwner(c.Request().Context(), id, ownerID)
	if err != nil {
		switch err {
		case repository.ErrSessionNotFound, sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "cannot delete session with bookings"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteAddOn handles DELETE /v1/add-ons/:id. An add-on referenced by
// any booking line cannot be deleted; deactivate it instead.
func (h *OwnerHandler) DeleteAddOn(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	err = h.AddOnRepo.DeleteByIDAndOwner(c.Request().Context(), id, ownerID)
	if err != nil {
		switch err {
		case repository.ErrAddOnNotFound, sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "add-on not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "add-on is referenced by bookings, deactivate it instead"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}
