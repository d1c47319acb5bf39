package handler

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/arlenko/bookery/internal/repository"
	"github.com/labstack/echo/v4"
)

// GetBusiness handles GET /v1/business and returns the authenticated
// owner's business record.
func (h *OwnerHandler) GetBusiness(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	biz, err := h.BusinessRepo.GetByOwner(c.Request().Context(), ownerID)
	if err != nil {
		if err == repository.ErrBusinessNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "business not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, biz)
}

// UpdateBusiness handles PUT /v1/business and renames the owner's
// business.
func (h *OwnerHandler) UpdateBusiness(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	biz, err := h.BusinessRepo.GetByOwner(c.Request().Context(), ownerID)
	if err != nil {
		if err == repository.ErrBusinessNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "business not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if err := h.BusinessRepo.UpdateName(c.Request().Context(), biz.ID, ownerID, name); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "business not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	updated, _ := h.BusinessRepo.GetByID(c.Request().Context(), biz.ID)
	return c.JSON(http.StatusOK, updated)
}
