package handler

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"github.com/arlenko/bookery/internal/repository"
	"github.com/labstack/echo/v4"
)

// CreateAddOn handles POST /v1/add-ons. The optional event_id restricts
// the add-on to one event; without it the add-on is sold business-wide.
func (h *OwnerHandler) CreateAddOn(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Name       string  `json:"name"`
		PriceCents int64   `json:"price_cents"`
		EventID    *uint64 `json:"event_id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if body.PriceCents < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price_cents must not be negative"})
	}
	biz, err := h.BusinessRepo.GetByOwner(c.Request().Context(), ownerID)
	if err != nil {
		if err == repository.ErrBusinessNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "business not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if body.EventID != nil {
		// event scope must point at an event of this owner
		if _, err := h.EventRepo.GetByIDAndOwner(c.Request().Context(), *body.EventID, ownerID); err != nil {
			if err == repository.ErrEventNotFound {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
	}
	a := &repository.AddOn{
		BusinessID: biz.ID,
		EventID:    body.EventID,
		Name:       name,
		PriceCents: body.PriceCents,
		IsActive:   true,
	}
	if err := h.AddOnRepo.Create(c.Request().Context(), a); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create add-on"})
	}
	return c.JSON(http.StatusCreated, a)
}

// UpdateAddOn handles PUT /v1/add-ons/:id. Deactivating via is_active
// keeps history intact while blocking new attachments; price edits only
// affect future bookings.
func (h *OwnerHandler) UpdateAddOn(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Name       string  `json:"name"`
		PriceCents int64   `json:"price_cents"`
		EventID    *uint64 `json:"event_id"`
		IsActive   *bool   `json:"is_active"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if body.PriceCents < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price_cents must not be negative"})
	}
	a, err := h.AddOnRepo.GetByIDAndOwner(c.Request().Context(), id, ownerID)
	if err != nil {
		if err == repository.ErrAddOnNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "add-on not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if body.EventID != nil {
		if _, err := h.EventRepo.GetByIDAndOwner(c.Request().Context(), *body.EventID, ownerID); err != nil {
			if err == repository.ErrEventNotFound {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
	}
	a.Name = name
	a.PriceCents = body.PriceCents
	a.EventID = body.EventID
	if body.IsActive != nil {
		a.IsActive = *body.IsActive
	}
	if err := h.AddOnRepo.Update(c.Request().Context(), a, ownerID); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "add-on not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	updated, _ := h.AddOnRepo.GetByIDAndOwner(c.Request().Context(), id, ownerID)
	return c.JSON(http.StatusOK, updated)
}

// ListAddOns handles GET /v1/add-ons for the owner, inactive included.
func (h *OwnerHandler) ListAddOns(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.AddOnRepo.ListByOwner(c.Request().Context(), ownerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
