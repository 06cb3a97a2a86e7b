package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/proveloce/connect/internal/core/domain"
	"github.com/proveloce/connect/internal/core/ports"
)

type TaskHandler struct {
	taskService ports.TaskService
}

func NewTaskHandler(taskService ports.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

type createTaskRequest struct {
	Title       string    `json:"title"       validate:"required"`
	Description string    `json:"description"`
	Domain      string    `json:"domain"`
	Deadline    time.Time `json:"deadline"`
	Priority    string    `json:"priority"    validate:"omitempty,oneof=low medium high"`
	ExpertIDs   []string  `json:"expert_ids"`
}

type updateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Domain      *string    `json:"domain"`
	Deadline    *time.Time `json:"deadline"`
	Priority    *string    `json:"priority" validate:"omitempty,oneof=low medium high"`
}

type assignTaskRequest struct {
	ExpertIDs []string `json:"expert_ids" validate:"required,min=1"`
}

// Create opens a task and fans out assignment offers to the listed experts.
//
// @Summary      Create a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        body  body      createTaskRequest  true  "Task details"
// @Success      201   {object}  envelope
// @Failure      422   {object}  errorEnvelope
// @Router       /api/tasks [post]
func (h *TaskHandler) Create(c echo.Context) error {
	actor, err := ctxAuth(c)
	if err != nil {
		return err
	}

	var req createTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	detail, err := h.taskService.Create(c.Request().Context(), actor, ports.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Domain:      req.Domain,
		Deadline:    req.Deadline,
		Priority:    domain.TaskPriority(req.Priority),
		ExpertIDs:   req.ExpertIDs,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ok(detail))
}

// Get returns a task with its assignment rows.
//
// @Summary      Get a task
// @Tags         tasks
// @Produce      json
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  envelope
// @Failure      404  {object}  errorEnvelope
// @Router       /api/tasks/{id} [get]
func (h *TaskHandler) Get(c echo.Context) error {
	actor, err := ctxAuth(c)
	if err != nil {
		return err
	}

	detail, err := h.taskService.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(detail))
}

// List returns tasks in the caller's scope.
//
// @Summary      List tasks
// @Tags         tasks
// @Produce      json
// @Param        page   query     int  false  "Page (1-based)"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  envelope
// @Failure      403    {object}  errorEnvelope
// @Router       /api/tasks [get]
func (h *TaskHandler) List(c echo.Context) error {
	actor, err := ctxAuth(c)
	if err != nil {
		return err
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	filter := ports.ListTasksFilter{Page: page, Limit: limit}

	tasks, total, err := h.taskService.List(c.Request().Context(), actor, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(listResponse{
		Items:      tasks,
		Pagination: paginate(total, filter.Page, filter.Limit),
	}))
}

// Update patches task fields.
//
// @Summary      Update a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "Task ID"
// @Param        body  body      updateTaskRequest  true  "Fields to change"
// @Success      200   {object}  envelope
// @Failure      403   {object}  errorEnvelope
// @Router       /api/tasks/{id} [patch]
func (h *TaskHandler) Update(c echo.Context) error {
	actor, err := ctxAuth(c)
	if err != nil {
		return err
	}

	var req updateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	patch := ports.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Domain:      req.Domain,
		Deadline:    req.Deadline,
	}
	if req.Priority != nil {
		p := domain.TaskPriority(*req.Priority)
		patch.Priority = &p
	}

	task, err := h.taskService.Update(c.Request().Context(), actor, c.Param("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(task))
}

// Assign fans out offers to additional experts on an existing task.
//
// @Summary      Assign experts to a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "Task ID"
// @Param        body  body      assignTaskRequest  true  "Expert IDs"
// @Success      200   {object}  envelope
// @Failure      403   {object}  errorEnvelope
// @Router       /api/tasks/{id}/assign [post]
func (h *TaskHandler) Assign(c echo.Context) error {
	actor, err := ctxAuth(c)
	if err != nil {
		return err
	}

	var req assignTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	detail, err := h.taskService.Assign(c.Request().Context(), actor, c.Param("id"), req.ExpertIDs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(detail))
}

// Accept marks the caller's assignment row as accepted.
//
// @Summary      Accept a task assignment
// @Tags         tasks
// @Produce      json
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  envelope
// @Failure      422  {object}  errorEnvelope
// @Router       /api/expert/tasks/{id}/accept [post]
func (h *TaskHandler) Accept(c echo.Context) error {
	return h.respond(c, domain.AssignmentAccepted)
}

// Decline marks the caller's assignment row as declined.
//
// @Summary      Decline a task assignment
// @Tags         tasks
// @Produce      json
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  envelope
// @Failure      422  {object}  errorEnvelope
// @Router       /api/expert/tasks/{id}/decline [post]
func (h *TaskHandler) Decline(c echo.Context) error {
	return h.respond(c, domain.AssignmentDeclined)
}

// Complete marks the caller's accepted assignment row as completed.
//
// @Summary      Complete a task assignment
// @Tags         tasks
// @Produce      json
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  envelope
// @Failure      422  {object}  errorEnvelope
// @Router       /api/expert/tasks/{id}/complete [post]
func (h *TaskHandler) Complete(c echo.Context) error {
	return h.respond(c, domain.AssignmentCompleted)
}

func (h *TaskHandler) respond(c echo.Context, next domain.AssignmentStatus) error {
	actor, err := ctxAuth(c)
	if err != nil {
		return err
	}

	row, err := h.taskService.Respond(c.Request().Context(), actor, c.Param("id"), next)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(row))
}

// ListMine returns the caller's assignment rows.
//
// @Summary      List own task assignments
// @Tags         tasks
// @Produce      json
// @Success      200  {object}  envelope
// @Router       /api/expert/tasks [get]
func (h *TaskHandler) ListMine(c echo.Context) error {
	actor, err := ctxAuth(c)
	if err != nil {
		return err
	}

	rows, err := h.taskService.ListMine(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(rows))
}
