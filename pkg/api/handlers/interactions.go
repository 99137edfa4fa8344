package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	apierrors "github.com/lexhire/lexhire/pkg/api/errors"
	"github.com/lexhire/lexhire/pkg/interactions"
	"github.com/lexhire/lexhire/pkg/metrics"
	"github.com/lexhire/lexhire/pkg/models"
)

// UpdateNotesRequest carries the replacement notes for a saved job
type UpdateNotesRequest struct {
	Notes string `json:"notes" validate:"max=5000"`
}

// UpdateApplicationStatusRequest moves an application through the pipeline
type UpdateApplicationStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=applied interview offer rejected withdrawn"`
}

// InteractionHandler handles saved job and application requests
type InteractionHandler struct {
	interactionService *interactions.Service
	metrics            *metrics.Metrics
	validator          *validator.Validate
}

// NewInteractionHandler creates a new interaction handler
func NewInteractionHandler(interactionService *interactions.Service, m *metrics.Metrics) *InteractionHandler {
	return &InteractionHandler{
		interactionService: interactionService,
		metrics:            m,
		validator:          validator.New(),
	}
}

// SaveJob godoc
// @Summary Save a job listing
// @Description Saves a listing for the authenticated user. Saving an already saved listing is a no-op; an archived save is reactivated.
// @Tags Interactions
// @Produce json
// @Param id path int true "Listing ID"
// @Success 200 {object} models.UserJobInteraction
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /jobs/{id}/save [post]
func (h *InteractionHandler) SaveJob(c echo.Context) error {
	return h.upsert(c, models.InteractionSaved)
}

// ApplyToJob godoc
// @Summary Record an application to a job listing
// @Description Records an application. The application status starts at "applied" and the applied timestamp is set once, on first creation.
// @Tags Interactions
// @Produce json
// @Param id path int true "Listing ID"
// @Success 200 {object} models.UserJobInteraction
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /jobs/{id}/apply [post]
func (h *InteractionHandler) ApplyToJob(c echo.Context) error {
	return h.upsert(c, models.InteractionApplied)
}

func (h *InteractionHandler) upsert(c echo.Context, interactionType string) error {
	ctx := c.Request().Context()
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	listingID, err := parseUintParam(c, "id")
	if err != nil {
		return apierrors.ValidationError(c, err)
	}

	interaction, err := h.interactionService.Upsert(ctx, userID, listingID, interactionType)
	if err != nil {
		return apierrors.FromDomain(c, err)
	}

	if h.metrics != nil {
		h.metrics.RecordInteraction(interactionType)
	}
	return c.JSON(http.StatusOK, interaction)
}

// UnsaveJob godoc
// @Summary Archive a saved job
// @Tags Interactions
// @Produce json
// @Param id path int true "Listing ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /jobs/{id}/save [delete]
func (h *InteractionHandler) UnsaveJob(c echo.Context) error {
	return h.archive(c, models.InteractionSaved)
}

// WithdrawApplicationRecord godoc
// @Summary Archive an application record
// @Description Archives the interaction row; the application status history is kept.
// @Tags Interactions
// @Produce json
// @Param id path int true "Listing ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /jobs/{id}/apply [delete]
func (h *InteractionHandler) WithdrawApplicationRecord(c echo.Context) error {
	return h.archive(c, models.InteractionApplied)
}

func (h *InteractionHandler) archive(c echo.Context, interactionType string) error {
	ctx := c.Request().Context()
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	listingID, err := parseUintParam(c, "id")
	if err != nil {
		return apierrors.ValidationError(c, err)
	}

	if err := h.interactionService.Archive(ctx, userID, listingID, interactionType); err != nil {
		return apierrors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "interaction archived"})
}

// UpdateNotes godoc
// @Summary Update notes on a saved job
// @Description Replaces the notes verbatim. An empty string clears them.
// @Tags Interactions
// @Accept json
// @Produce json
// @Param id path int true "Listing ID"
// @Param request body UpdateNotesRequest true "Replacement notes"
// @Success 200 {object} models.UserJobInteraction
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /jobs/{id}/save/notes [put]
func (h *InteractionHandler) UpdateNotes(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	listingID, err := parseUintParam(c, "id")
	if err != nil {
		return apierrors.ValidationError(c, err)
	}

	var req UpdateNotesRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	interaction, err := h.interactionService.UpdateSavedNotes(ctx, userID, listingID, req.Notes)
	if err != nil {
		return apierrors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, interaction)
}

// UpdateApplicationStatus godoc
// @Summary Update an application's pipeline status
// @Tags Interactions
// @Accept json
// @Produce json
// @Param id path int true "Listing ID"
// @Param request body UpdateApplicationStatusRequest true "New status"
// @Success 200 {object} models.UserJobInteraction
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /jobs/{id}/apply/status [put]
func (h *InteractionHandler) UpdateApplicationStatus(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	listingID, err := parseUintParam(c, "id")
	if err != nil {
		return apierrors.ValidationError(c, err)
	}

	var req UpdateApplicationStatusRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	interaction, err := h.interactionService.UpdateApplicationStatus(ctx, userID, listingID, req.Status)
	if err != nil {
		return apierrors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, interaction)
}

// ListInteractions godoc
// @Summary List the authenticated user's interactions
// @Tags Interactions
// @Produce json
// @Param type query string false "Interaction type (saved, applied)"
// @Param status query string false "Row status (active, archived); defaults to active"
// @Param page query int false "Page number (default 1)"
// @Param limit query int false "Page size (default 20, max 100)"
// @Success 200 {object} interactions.ListResult
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /me/interactions [get]
func (h *InteractionHandler) ListInteractions(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	var req interactions.ListRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	result, err := h.interactionService.List(ctx, userID, req)
	if err != nil {
		return apierrors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
