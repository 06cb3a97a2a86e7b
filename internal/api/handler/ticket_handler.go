package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/proveloce/connect/internal/api/metrics"
	"github.com/proveloce/connect/internal/core/domain"
	"github.com/proveloce/connect/internal/core/ports"
)

type TicketHandler struct {
	ticketService ports.TicketService
}

func NewTicketHandler(ticketService ports.TicketService) *TicketHandler {
	return &TicketHandler{ticketService: ticketService}
}

type createTicketRequest struct {
	Subject     string `json:"subject"     validate:"required"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

type ticketStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type assignTicketRequest struct {
	AssigneeID string `json:"assignee_id" validate:"required"`
}

type respondTicketRequest struct {
	Text string `json:"text" validate:"required"`
	Edit bool   `json:"edit"`
}

// Create raises a new help-desk ticket for the caller.
//
// @Summary      Raise a ticket
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        body  body      createTicketRequest  true  "Ticket details"
// @Success      201   {object}  envelope
// @Failure      422   {object}  errorEnvelope
// @Router       /api/helpdesk/tickets [post]
func (h *TicketHandler) Create(c echo.Context) error {
	actor, err := ctxAuth(c)
	if err != nil {
		return err
	}

	var req createTicketRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	ticket, err := h.ticketService.Create(c.Request().Context(), actor, ports.CreateTicketInput{
		Subject:     req.Subject,
		Category:    req.Category,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ok(ticket))
}

// Get returns one ticket, visibility-checked for the caller.
//
// @Summary      Get a ticket
// @Tags         tickets
// @Produce      json
// @Param        id   path      string  true  "Ticket ID"
// @Success      200  {object}  envelope
// @Failure      404  {object}  errorEnvelope
// @Router       /api/helpdesk/tickets/{id} [get]
func (h *TicketHandler) Get(c echo.Context) error {
	actor, err := ctxAuth(c)
	if err != nil {
		return err
	}

	ticket, err := h.ticketService.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(ticket))
}

// List returns tickets visible to the caller. Regular users see their own,
// staff see their tenant, superadmin sees everything.
//
// @Summary      List tickets
// @Tags         tickets
// @Produce      json
// @Param        status  query     string  false  "Filter by status"
// @Param        page    query     int     false  "Page (1-based)"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  envelope
// @Router       /api/helpdesk/tickets [get]
func (h *TicketHandler) List(c echo.Context) error {
	actor, err := ctxAuth(c)
	if err != nil {
		return err
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	filter := ports.ListTicketsFilter{
		Status: domain.TicketStatus(c.QueryParam("status")),
		Page:   page,
		Limit:  limit,
	}

	tickets, total, err := h.ticketService.List(c.Request().Context(), actor, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(listResponse{
		Items:      tickets,
		Pagination: paginate(total, filter.Page, filter.Limit),
	}))
}

// UpdateStatus moves a ticket through its workflow.
//
// @Summary      Update ticket status
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        id    path      string               true  "Ticket ID"
// @Param        body  body      ticketStatusRequest  true  "Target status"
// @Success      200   {object}  envelope
// @Failure      422   {object}  errorEnvelope
// @Router       /api/helpdesk/tickets/{id}/status [patch]
func (h *TicketHandler) UpdateStatus(c echo.Context) error {
	actor, err := ctxAuth(c)
	if err != nil {
		return err
	}

	var req ticketStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	if err := h.ticketService.UpdateStatus(c.Request().Context(), actor, c.Param("id"), domain.TicketStatus(req.Status)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okMessage("ticket status updated"))
}

// Assign claims a ticket for an admin. A ticket already claimed by another
// admin is locked until a superadmin reassigns it.
//
// @Summary      Assign a ticket
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        id    path      string               true  "Ticket ID"
// @Param        body  body      assignTicketRequest  true  "Assignee"
// @Success      200   {object}  envelope
// @Failure      409   {object}  errorEnvelope
// @Router       /api/helpdesk/tickets/{id}/assign [patch]
func (h *TicketHandler) Assign(c echo.Context) error {
	actor, err := ctxAuth(c)
	if err != nil {
		return err
	}

	var req assignTicketRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	if err := h.ticketService.Assign(c.Request().Context(), actor, c.Param("id"), req.AssigneeID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okMessage("ticket assigned"))
}

// Reassign hands a claimed ticket to another admin. Superadmin only.
//
// @Summary      Reassign a ticket
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        id    path      string               true  "Ticket ID"
// @Param        body  body      assignTicketRequest  true  "New assignee"
// @Success      200   {object}  envelope
// @Failure      403   {object}  errorEnvelope
// @Router       /api/helpdesk/tickets/{id}/reassign [post]
func (h *TicketHandler) Reassign(c echo.Context) error {
	actor, err := ctxAuth(c)
	if err != nil {
		return err
	}

	var req assignTicketRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	if err := h.ticketService.Reassign(c.Request().Context(), actor, c.Param("id"), req.AssigneeID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okMessage("ticket reassigned"))
}

// Unassign releases a claimed ticket back to the pool.
//
// @Summary      Unassign a ticket
// @Tags         tickets
// @Produce      json
// @Param        id   path      string  true  "Ticket ID"
// @Success      200  {object}  envelope
// @Failure      403  {object}  errorEnvelope
// @Router       /api/helpdesk/tickets/{id}/unassign [post]
func (h *TicketHandler) Unassign(c echo.Context) error {
	actor, err := ctxAuth(c)
	if err != nil {
		return err
	}

	if err := h.ticketService.Unassign(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okMessage("ticket unassigned"))
}

// Respond records the single substantive response, or edits it when the edit
// flag is set and the allowance permits.
//
// @Summary      Respond to a ticket
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        id    path      string                true  "Ticket ID"
// @Param        body  body      respondTicketRequest  true  "Response text"
// @Success      200   {object}  envelope
// @Failure      409   {object}  errorEnvelope
// @Router       /api/helpdesk/tickets/{id}/messages [post]
func (h *TicketHandler) Respond(c echo.Context) error {
	actor, err := ctxAuth(c)
	if err != nil {
		return err
	}

	var req respondTicketRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	ticket, err := h.ticketService.Respond(c.Request().Context(), actor, c.Param("id"), req.Text, req.Edit)
	if err != nil {
		metrics.TicketResponsesTotal.WithLabelValues("rejected").Inc()
		return err
	}
	if req.Edit {
		metrics.TicketResponsesTotal.WithLabelValues("edited").Inc()
	} else {
		metrics.TicketResponsesTotal.WithLabelValues("created").Inc()
	}
	return c.JSON(http.StatusOK, ok(ticket))
}
