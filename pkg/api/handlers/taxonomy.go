package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	apierrors "github.com/lexhire/lexhire/pkg/api/errors"
	"github.com/lexhire/lexhire/pkg/taxonomy"
)

// CreatePracticeAreaRequest represents a request to create a practice area
type CreatePracticeAreaRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	ParentID *uint  `json:"parent_id,omitempty"`
}

// ReparentRequest carries the new parent for a practice area move
type ReparentRequest struct {
	ParentID *uint `json:"parent_id"`
}

// CreateLocationRequest represents a request to create a location
type CreateLocationRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Slug     string `json:"slug" validate:"omitempty,max=120"`
	Region   string `json:"region" validate:"omitempty,max=100"`
	Country  string `json:"country" validate:"omitempty,max=100"`
	IsRemote bool   `json:"is_remote"`
}

// TaxonomyHandler handles practice area and location requests
type TaxonomyHandler struct {
	taxonomyService *taxonomy.Service
	validator       *validator.Validate
}

// NewTaxonomyHandler creates a new taxonomy handler
func NewTaxonomyHandler(taxonomyService *taxonomy.Service) *TaxonomyHandler {
	return &TaxonomyHandler{
		taxonomyService: taxonomyService,
		validator:       validator.New(),
	}
}

// GetPracticeAreaTree godoc
// @Summary Get the practice area tree
// @Description Returns all practice areas as a forest, children nested under parents.
// @Tags Taxonomy
// @Produce json
// @Success 200 {array} models.PracticeArea
// @Failure 500 {object} models.ErrorResponse
// @Router /practice-areas [get]
func (h *TaxonomyHandler) GetPracticeAreaTree(c echo.Context) error {
	ctx := c.Request().Context()

	tree, err := h.taxonomyService.Tree(ctx)
	if err != nil {
		return apierrors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, tree)
}

// ListLocations godoc
// @Summary List active locations
// @Tags Taxonomy
// @Produce json
// @Success 200 {array} models.Location
// @Failure 500 {object} models.ErrorResponse
// @Router /locations [get]
func (h *TaxonomyHandler) ListLocations(c echo.Context) error {
	ctx := c.Request().Context()

	locations, err := h.taxonomyService.ListLocations(ctx)
	if err != nil {
		return apierrors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, locations)
}

// CreatePracticeArea godoc
// @Summary Create a practice area
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body CreatePracticeAreaRequest true "Practice area details"
// @Success 201 {object} models.PracticeArea
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /admin/practice-areas [post]
func (h *TaxonomyHandler) CreatePracticeArea(c echo.Context) error {
	ctx := c.Request().Context()

	var req CreatePracticeAreaRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	area, err := h.taxonomyService.CreatePracticeArea(ctx, req.Name, req.ParentID)
	if err != nil {
		return apierrors.FromDomain(c, err)
	}
	return c.JSON(http.StatusCreated, area)
}

// ReparentPracticeArea godoc
// @Summary Move a practice area under a new parent
// @Description Moves the area, rejecting any move that would make the parent chain cyclic. A null parent makes the area a root.
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "Practice area ID"
// @Param request body ReparentRequest true "New parent"
// @Success 200 {object} models.PracticeArea
// @Failure 404 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /admin/practice-areas/{id}/parent [put]
func (h *TaxonomyHandler) ReparentPracticeArea(c echo.Context) error {
	ctx := c.Request().Context()

	areaID, err := parseUintParam(c, "id")
	if err != nil {
		return apierrors.ValidationError(c, err)
	}

	var req ReparentRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	area, err := h.taxonomyService.Reparent(ctx, areaID, req.ParentID)
	if err != nil {
		return apierrors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, area)
}

// DeletePracticeArea godoc
// @Summary Delete a practice area
// @Description Deletes a leaf practice area. Areas with children are rejected.
// @Tags Admin
// @Produce json
// @Param id path int true "Practice area ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /admin/practice-areas/{id} [delete]
func (h *TaxonomyHandler) DeletePracticeArea(c echo.Context) error {
	ctx := c.Request().Context()

	areaID, err := parseUintParam(c, "id")
	if err != nil {
		return apierrors.ValidationError(c, err)
	}

	if err := h.taxonomyService.DeletePracticeArea(ctx, areaID); err != nil {
		return apierrors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "practice area deleted"})
}

// CreateLocation godoc
// @Summary Create a location
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body CreateLocationRequest true "Location details"
// @Success 201 {object} models.Location
// @Failure 400 {object} models.ErrorResponse
// @Router /admin/locations [post]
func (h *TaxonomyHandler) CreateLocation(c echo.Context) error {
	ctx := c.Request().Context()

	var req CreateLocationRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	location, err := h.taxonomyService.CreateLocation(ctx, req.Name, req.Slug, req.Region, req.Country, req.IsRemote)
	if err != nil {
		return apierrors.FromDomain(c, err)
	}
	return c.JSON(http.StatusCreated, location)
}

// RecalculateJobCounts godoc
// @Summary Recalculate location job counts
// @Description Rebuilds every location's denormalized visible-job count from the listings table.
// @Tags Admin
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 500 {object} models.ErrorResponse
// @Router /admin/locations/recalculate [post]
func (h *TaxonomyHandler) RecalculateJobCounts(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.taxonomyService.RecalculateJobCounts(ctx); err != nil {
		return apierrors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "job counts recalculated"})
}
