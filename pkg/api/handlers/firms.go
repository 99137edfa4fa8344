package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	apierrors "github.com/lexhire/lexhire/pkg/api/errors"
	"github.com/lexhire/lexhire/pkg/firms"
)

// FirmHandler handles law firm requests
type FirmHandler struct {
	firmService *firms.Service
	validator   *validator.Validate
}

// NewFirmHandler creates a new firm handler
func NewFirmHandler(firmService *firms.Service) *FirmHandler {
	return &FirmHandler{
		firmService: firmService,
		validator:   validator.New(),
	}
}

// ListFirms godoc
// @Summary List active law firms
// @Tags Firms
// @Produce json
// @Success 200 {array} models.LawFirm
// @Failure 500 {object} models.ErrorResponse
// @Router /firms [get]
func (h *FirmHandler) ListFirms(c echo.Context) error {
	ctx := c.Request().Context()

	result, err := h.firmService.List(ctx)
	if err != nil {
		return apierrors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// GetFirm godoc
// @Summary Get a law firm by slug
// @Tags Firms
// @Produce json
// @Param slug path string true "Firm slug"
// @Success 200 {object} models.LawFirm
// @Failure 404 {object} models.ErrorResponse
// @Router /firms/{slug} [get]
func (h *FirmHandler) GetFirm(c echo.Context) error {
	ctx := c.Request().Context()

	firm, err := h.firmService.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		return apierrors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, firm)
}

// CreateFirm godoc
// @Summary Create a law firm
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body firms.CreateFirmRequest true "Firm details"
// @Success 201 {object} models.LawFirm
// @Failure 400 {object} models.ErrorResponse
// @Router /admin/firms [post]
func (h *FirmHandler) CreateFirm(c echo.Context) error {
	ctx := c.Request().Context()

	var req firms.CreateFirmRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	firm, err := h.firmService.Create(ctx, req)
	if err != nil {
		return apierrors.FromDomain(c, err)
	}
	return c.JSON(http.StatusCreated, firm)
}

// UpdateFirm godoc
// @Summary Update a law firm
// @Description Updates a firm. Renaming regenerates the slug.
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "Firm ID"
// @Param request body firms.UpdateFirmRequest true "Fields to update"
// @Success 200 {object} models.LawFirm
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/firms/{id} [put]
func (h *FirmHandler) UpdateFirm(c echo.Context) error {
	ctx := c.Request().Context()

	firmID, err := parseUintParam(c, "id")
	if err != nil {
		return apierrors.ValidationError(c, err)
	}

	var req firms.UpdateFirmRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	firm, err := h.firmService.Update(ctx, firmID, req)
	if err != nil {
		return apierrors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, firm)
}
