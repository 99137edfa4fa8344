package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	apierrors "github.com/lexhire/lexhire/pkg/api/errors"
	"github.com/lexhire/lexhire/pkg/listings"
	"github.com/lexhire/lexhire/pkg/metrics"
)

// ListingHandler handles job listing requests
type ListingHandler struct {
	listingService *listings.Service
	metrics        *metrics.Metrics
	validator      *validator.Validate
}

// NewListingHandler creates a new listing handler
func NewListingHandler(listingService *listings.Service, m *metrics.Metrics) *ListingHandler {
	return &ListingHandler{
		listingService: listingService,
		metrics:        m,
		validator:      validator.New(),
	}
}

// SearchListings godoc
// @Summary Search published job listings
// @Description Returns a page of publicly visible job listings, newest first. All filters are optional.
// @Tags Jobs
// @Produce json
// @Param q query string false "Keyword matched against the listing title (case-insensitive)"
// @Param location_id query int false "Location ID"
// @Param practice_area_id query int false "Practice area ID"
// @Param employment_type query string false "Employment type (full_time, part_time, contract, internship)"
// @Param workplace_type query string false "Workplace type (onsite, remote, hybrid)"
// @Param page query int false "Page number (default 1)"
// @Param limit query int false "Page size (default 20, max 100)"
// @Success 200 {object} listings.SearchResult
// @Failure 500 {object} models.ErrorResponse
// @Router /jobs [get]
func (h *ListingHandler) SearchListings(c echo.Context) error {
	ctx := c.Request().Context()

	var req listings.SearchRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	result, err := h.listingService.Search(ctx, req)
	if err != nil {
		return apierrors.FromDomain(c, err)
	}

	if h.metrics != nil {
		h.metrics.RecordListingSearch()
	}
	return c.JSON(http.StatusOK, result)
}

// GetListing godoc
// @Summary Get a published job listing by slug
// @Tags Jobs
// @Produce json
// @Param slug path string true "Listing slug"
// @Success 200 {object} models.JobListing
// @Failure 404 {object} models.ErrorResponse
// @Router /jobs/{slug} [get]
func (h *ListingHandler) GetListing(c echo.Context) error {
	ctx := c.Request().Context()

	listing, err := h.listingService.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		return apierrors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, listing)
}

// CreateListing godoc
// @Summary Create a job listing
// @Description Creates a listing. The slug is derived from the title and frozen; later title edits never change it.
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body listings.CreateListingRequest true "Listing details"
// @Success 201 {object} models.JobListing
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/jobs [post]
func (h *ListingHandler) CreateListing(c echo.Context) error {
	ctx := c.Request().Context()

	var req listings.CreateListingRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.ValidationError(c, err)
	}
	if userID, ok := c.Get("user_id").(uint); ok {
		req.PostedByID = &userID
	}

	listing, err := h.listingService.Create(ctx, req)
	if err != nil {
		return apierrors.FromDomain(c, err)
	}

	if h.metrics != nil && listing.PublishedAt != nil {
		h.metrics.RecordListingPublished()
	}
	return c.JSON(http.StatusCreated, listing)
}

// UpdateListing godoc
// @Summary Update a job listing
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "Listing ID"
// @Param request body listings.UpdateListingRequest true "Fields to update"
// @Success 200 {object} models.JobListing
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/jobs/{id} [put]
func (h *ListingHandler) UpdateListing(c echo.Context) error {
	ctx := c.Request().Context()

	listingID, err := parseUintParam(c, "id")
	if err != nil {
		return apierrors.ValidationError(c, err)
	}

	var req listings.UpdateListingRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	wasUnpublished := req.Publish != nil && *req.Publish

	listing, err := h.listingService.Update(ctx, listingID, req)
	if err != nil {
		return apierrors.FromDomain(c, err)
	}

	if h.metrics != nil && wasUnpublished && listing.PublishedAt != nil {
		h.metrics.RecordListingPublished()
	}
	return c.JSON(http.StatusOK, listing)
}

// DeleteListing godoc
// @Summary Delete a job listing
// @Tags Admin
// @Produce json
// @Param id path int true "Listing ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/jobs/{id} [delete]
func (h *ListingHandler) DeleteListing(c echo.Context) error {
	ctx := c.Request().Context()

	listingID, err := parseUintParam(c, "id")
	if err != nil {
		return apierrors.ValidationError(c, err)
	}

	if err := h.listingService.Delete(ctx, listingID); err != nil {
		return apierrors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "listing deleted"})
}

func parseUintParam(c echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}
