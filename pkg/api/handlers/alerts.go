package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/lexhire/lexhire/pkg/alerts"
	apierrors "github.com/lexhire/lexhire/pkg/api/errors"
	"github.com/lexhire/lexhire/pkg/metrics"
)

// AlertHandler handles job alert subscription requests
type AlertHandler struct {
	alertService *alerts.Service
	dispatcher   *alerts.Dispatcher
	metrics      *metrics.Metrics
	validator    *validator.Validate
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(alertService *alerts.Service, dispatcher *alerts.Dispatcher, m *metrics.Metrics) *AlertHandler {
	return &AlertHandler{
		alertService: alertService,
		dispatcher:   dispatcher,
		metrics:      m,
		validator:    validator.New(),
	}
}

// CreateSubscription godoc
// @Summary Create a job alert subscription
// @Description Creates an alert. Each user may hold at most 5 active alerts; further requests are rejected with limit_exceeded.
// @Tags Alerts
// @Accept json
// @Produce json
// @Param request body alerts.CreateSubscriptionRequest true "Subscription details"
// @Success 201 {object} models.JobAlertSubscription
// @Failure 400 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse "limit_exceeded"
// @Security BearerAuth
// @Router /job-alerts [post]
func (h *AlertHandler) CreateSubscription(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	var req alerts.CreateSubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	sub, err := h.alertService.CreateSubscription(ctx, userID, req)
	if err != nil {
		return apierrors.FromDomain(c, err)
	}

	if h.metrics != nil {
		h.metrics.RecordSubscriptionCreated(sub.Frequency)
	}
	return c.JSON(http.StatusCreated, sub)
}

// ListSubscriptions godoc
// @Summary List the authenticated user's job alerts
// @Tags Alerts
// @Produce json
// @Success 200 {array} models.JobAlertSubscription
// @Security BearerAuth
// @Router /job-alerts [get]
func (h *AlertHandler) ListSubscriptions(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	subs, err := h.alertService.ListSubscriptions(ctx, userID)
	if err != nil {
		return apierrors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, subs)
}

// DeleteSubscription godoc
// @Summary Delete a job alert subscription
// @Description Permanently removes the subscription and its click history references. Subscriptions owned by other users report not found.
// @Tags Alerts
// @Produce json
// @Param id path int true "Subscription ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /job-alerts/{id} [delete]
func (h *AlertHandler) DeleteSubscription(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	subID, err := parseUintParam(c, "id")
	if err != nil {
		return apierrors.ValidationError(c, err)
	}

	if err := h.alertService.DeleteSubscription(ctx, userID, subID); err != nil {
		return apierrors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "subscription deleted"})
}

// TrackClick godoc
// @Summary Track a digest link click and redirect
// @Description Records the click against the subscription, then redirects to the public job page. Unknown ids return 404 and record nothing.
// @Tags Alerts
// @Param subscription_id query int true "Subscription ID"
// @Param listing_id query int true "Listing ID"
// @Success 302 "Redirect to the job page"
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /job-alerts/click [get]
func (h *AlertHandler) TrackClick(c echo.Context) error {
	ctx := c.Request().Context()

	subID, err := strconv.ParseUint(c.QueryParam("subscription_id"), 10, 32)
	if err != nil {
		return apierrors.ValidationError(c, err)
	}
	listingID, err := strconv.ParseUint(c.QueryParam("listing_id"), 10, 32)
	if err != nil {
		return apierrors.ValidationError(c, err)
	}

	target, err := h.alertService.RecordClick(ctx, uint(subID), uint(listingID), c.RealIP(), c.Request().UserAgent())
	if err != nil {
		return apierrors.FromDomain(c, err)
	}

	if h.metrics != nil {
		h.metrics.RecordAlertClick()
	}
	return c.Redirect(http.StatusFound, target)
}

// DispatchDigests godoc
// @Summary Trigger a digest dispatch run
// @Description Runs the digest dispatcher for the given frequency, or for daily and weekly when no frequency is given. Concurrent runs of the same frequency are rejected.
// @Tags Admin
// @Produce json
// @Param frequency query string false "Digest frequency (daily, weekly)"
// @Success 200 {object} alerts.RunStats
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /admin/job-alerts/dispatch [post]
func (h *AlertHandler) DispatchDigests(c echo.Context) error {
	ctx := c.Request().Context()

	stats, err := h.dispatcher.Run(ctx, c.QueryParam("frequency"))
	if err != nil {
		if err == alerts.ErrRunInProgress {
			return c.JSON(http.StatusConflict, map[string]string{
				"error":   "run_in_progress",
				"message": "A digest run for this frequency is already in progress.",
			})
		}
		return apierrors.InternalError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}
