package handler // handler package contains owner-specific experience handlers

import (
	"database/sql" // sql is imported for sentinel errors like sql.ErrNoRows
	"net/http"     // http provides status code constants
	"strconv"      // strconv parses string identifiers to numeric types
	"strings"      // strings offers trimming utilities

	"github.com/arlenko/bookery/internal/repository" // repository holds database models
	"github.com/labstack/echo/v4"                    // echo is the web framework used for handlers
)

// CreateExperience handles POST /v1/experiences and creates a new
// experience under the authenticated owner's business. MaxCapacity is
// required because it is the final fallback of the capacity chain.
func (h *OwnerHandler) CreateExperience(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	var body struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		MaxCapacity int    `json:"max_capacity"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	title := strings.TrimSpace(body.Title)
	if title == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "title is required"})
	}
	if body.MaxCapacity <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "max_capacity must be positive"})
	}
	biz, err := h.BusinessRepo.GetByOwner(c.Request().Context(), ownerID)
	if err != nil {
		if err == repository.ErrBusinessNotFound {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "business not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}
	exp := &repository.Experience{
		BusinessID:  biz.ID,
		Title:       title,
		Description: strings.TrimSpace(body.Description),
		MaxCapacity: body.MaxCapacity,
	}
	if err := h.ExperienceRepo.Create(c.Request().Context(), exp); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not create experience"})
	}
	return c.JSON(http.StatusCreated, exp)
}

// UpdateExperience handles PUT /v1/experiences/:id and updates the
// title, description and capacity fallback of an owned experience.
func (h *OwnerHandler) UpdateExperience(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	var body struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		MaxCapacity int    `json:"max_capacity"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	title := strings.TrimSpace(body.Title)
	if title == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "title is required"})
	}
	if body.MaxCapacity <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "max_capacity must be positive"})
	}
	exp, err := h.ExperienceRepo.GetByIDAndOwner(c.Request().Context(), id, ownerID)
	if err != nil {
		if err == repository.ErrExperienceNotFound {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "experience not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}
	exp.Title = title
	exp.Description = strings.TrimSpace(body.Description)
	exp.MaxCapacity = body.MaxCapacity
	if err := h.ExperienceRepo.Update(c.Request().Context(), exp, ownerID); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "experience not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "update failed"})
	}
	updated, _ := h.ExperienceRepo.GetByID(c.Request().Context(), id)
	return c.JSON(http.StatusOK, updated)
}

// ListExperiences handles GET /v1/experiences and returns all
// experiences owned by the authenticated user.
func (h *OwnerHandler) ListExperiences(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	items, err := h.ExperienceRepo.ListByOwner(c.Request().Context(), ownerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// GetExperience handles GET /v1/experiences/:id for the owner surface.
func (h *OwnerHandler) GetExperience(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	exp, err := h.ExperienceRepo.GetByIDAndOwner(c.Request().Context(), id, ownerID)
	if err != nil {
		if err == repository.ErrExperienceNotFound {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "experience not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}
	return c.JSON(http.StatusOK, exp)
}
