package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/proveloce/connect/internal/api/metrics"
	"github.com/proveloce/connect/internal/core/domain"
	"github.com/proveloce/connect/internal/core/ports"
)

type ApplicationHandler struct {
	applicationService ports.ApplicationService
}

func NewApplicationHandler(applicationService ports.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applicationService: applicationService}
}

type applicationProfileRequest struct {
	Skills       []string `json:"skills"`
	Availability string   `json:"availability"`
	Portfolio    string   `json:"portfolio"`
	Documents    []string `json:"documents"`
}

type rejectApplicationRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// GetMine returns the caller's application, creating a draft on first access.
//
// @Summary      Get own expert application
// @Tags         applications
// @Produce      json
// @Success      200  {object}  envelope
// @Router       /api/expert-application [get]
func (h *ApplicationHandler) GetMine(c echo.Context) error {
	actor, err := ctxAuth(c)
	if err != nil {
		return err
	}

	app, err := h.applicationService.GetOrCreate(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(app))
}

// UpdateMine edits the profile of a draft or rejected application.
//
// @Summary      Update own expert application
// @Tags         applications
// @Accept       json
// @Produce      json
// @Param        body  body      applicationProfileRequest  true  "Profile"
// @Success      200   {object}  envelope
// @Failure      422   {object}  errorEnvelope
// @Router       /api/expert-application [post]
func (h *ApplicationHandler) UpdateMine(c echo.Context) error {
	actor, err := ctxAuth(c)
	if err != nil {
		return err
	}

	var req applicationProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	profile := domain.ApplicationProfile{
		Skills:       req.Skills,
		Availability: req.Availability,
		Portfolio:    req.Portfolio,
		Documents:    req.Documents,
	}
	app, err := h.applicationService.UpdateProfile(c.Request().Context(), actor, profile)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(app))
}

// Submit moves the caller's application into review.
//
// @Summary      Submit own expert application
// @Tags         applications
// @Produce      json
// @Success      200  {object}  envelope
// @Failure      422  {object}  errorEnvelope
// @Router       /api/expert-application/submit [post]
func (h *ApplicationHandler) Submit(c echo.Context) error {
	actor, err := ctxAuth(c)
	if err != nil {
		return err
	}

	app, err := h.applicationService.Submit(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(app))
}

// List returns applications for review, scoped to the reviewer's tenant.
//
// @Summary      List expert applications
// @Tags         applications
// @Produce      json
// @Param        status  query     string  false  "Filter by status"
// @Param        page    query     int     false  "Page (1-based)"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  envelope
// @Failure      403     {object}  errorEnvelope
// @Router       /api/applications [get]
func (h *ApplicationHandler) List(c echo.Context) error {
	actor, err := ctxAuth(c)
	if err != nil {
		return err
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	filter := ports.ListApplicationsFilter{
		Status: domain.ApplicationStatus(c.QueryParam("status")),
		Page:   page,
		Limit:  limit,
	}

	apps, total, err := h.applicationService.List(c.Request().Context(), actor, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(listResponse{
		Items:      apps,
		Pagination: paginate(total, filter.Page, filter.Limit),
	}))
}

// Approve grants expert status to the application owner.
//
// @Summary      Approve an application
// @Tags         applications
// @Produce      json
// @Param        id   path      string  true  "Application ID"
// @Success      200  {object}  envelope
// @Failure      409  {object}  errorEnvelope
// @Router       /api/applications/{id}/approve [post]
func (h *ApplicationHandler) Approve(c echo.Context) error {
	actor, err := ctxAuth(c)
	if err != nil {
		return err
	}

	if err := h.applicationService.Approve(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	metrics.ApplicationsReviewedTotal.WithLabelValues("approved").Inc()
	return c.JSON(http.StatusOK, okMessage("application approved"))
}

// Reject declines a pending application with a mandatory reason.
//
// @Summary      Reject an application
// @Tags         applications
// @Accept       json
// @Produce      json
// @Param        id    path      string                    true  "Application ID"
// @Param        body  body      rejectApplicationRequest  true  "Rejection reason"
// @Success      200   {object}  envelope
// @Failure      422   {object}  errorEnvelope
// @Router       /api/applications/{id}/reject [post]
func (h *ApplicationHandler) Reject(c echo.Context) error {
	actor, err := ctxAuth(c)
	if err != nil {
		return err
	}

	var req rejectApplicationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	if err := h.applicationService.Reject(c.Request().Context(), actor, c.Param("id"), req.Reason); err != nil {
		return err
	}
	metrics.ApplicationsReviewedTotal.WithLabelValues("rejected").Inc()
	return c.JSON(http.StatusOK, okMessage("application rejected"))
}

// Remove revokes an approved expert, demoting the owner back to user.
//
// @Summary      Revoke an approved expert
// @Tags         applications
// @Produce      json
// @Param        id   path      string  true  "Application ID"
// @Success      200  {object}  envelope
// @Failure      409  {object}  errorEnvelope
// @Router       /api/applications/{id}/remove [post]
func (h *ApplicationHandler) Remove(c echo.Context) error {
	actor, err := ctxAuth(c)
	if err != nil {
		return err
	}

	if err := h.applicationService.Remove(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	metrics.ApplicationsReviewedTotal.WithLabelValues("revoked").Inc()
	return c.JSON(http.StatusOK, okMessage("expert status revoked"))
}
