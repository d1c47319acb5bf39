package handler

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"github.com/arlenko/bookery/internal/repository"
	"github.com/labstack/echo/v4"
)

// CreateGuest handles POST /v1/guests. Guests are contact records of
// the owner's business; bookings reference them.
func (h *OwnerHandler) CreateGuest(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		FullName string `json:"full_name"`
		Email    string `json:"email"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	fullName := strings.TrimSpace(body.FullName)
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if fullName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "full_name is required"})
	}
	if email == "" || !strings.Contains(email, "@") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "valid email is required"})
	}
	biz, err := h.BusinessRepo.GetByOwner(c.Request().Context(), ownerID)
	if err != nil {
		if err == repository.ErrBusinessNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "business not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	g := &repository.Guest{BusinessID: biz.ID, FullName: fullName, Email: email}
	if err := h.GuestRepo.Create(c.Request().Context(), g); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create guest"})
	}
	return c.JSON(http.StatusCreated, guestResp(g))
}

// UpdateGuest handles PUT /v1/guests/:id.
func (h *OwnerHandler) UpdateGuest(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		FullName string `json:"full_name"`
		Email    string `json:"email"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	fullName := strings.TrimSpace(body.FullName)
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if fullName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "full_name is required"})
	}
	if email == "" || !strings.Contains(email, "@") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "valid email is required"})
	}
	g := &repository.Guest{ID: id, FullName: fullName, Email: email}
	if err := h.GuestRepo.Update(c.Request().Context(), g, ownerID); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "guest not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	updated, err := h.GuestRepo.GetByIDAndOwner(c.Request().Context(), id, ownerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, guestResp(updated))
}

// ListGuests handles GET /v1/guests.
func (h *OwnerHandler) ListGuests(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.GuestRepo.ListByOwner(c.Request().Context(), ownerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	out := make([]echo.Map, 0, len(items))
	for i := range items {
		out = append(out, guestResp(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetGuestBookings handles GET /v1/guests/:id/bookings and returns the
// guest's bookings across all of the owner's sessions, newest first.
func (h *OwnerHandler) GetGuestBookings(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	items, err := h.BookingRepo.ListByGuestForOwner(c.Request().Context(), id, ownerID)
	if err != nil {
		if err == repository.ErrGuestNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "guest not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func guestResp(g *repository.Guest) echo.Map {
	return echo.Map{
		"id":          g.ID,
		"business_id": g.BusinessID,
		"full_name":   g.FullName,
		"email":       g.Email,
		"created_at":  g.CreatedAt,
		"updated_at":  g.UpdatedAt,
	}
}
