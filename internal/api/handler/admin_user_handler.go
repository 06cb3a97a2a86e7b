package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/proveloce/connect/internal/core/domain"
	"github.com/proveloce/connect/internal/core/ports"
)

type AdminUserHandler struct {
	userService ports.AdminUserService
}

func NewAdminUserHandler(userService ports.AdminUserService) *AdminUserHandler {
	return &AdminUserHandler{userService: userService}
}

type createUserRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Name     string `json:"name"     validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role"     validate:"omitempty,oneof=user expert admin superadmin"`
	OrgID    string `json:"org_id"`
}

// updateUserRequest carries a partial account update. The save_cta fields
// are the explicit confirmation gate; without them the write is refused.
type updateUserRequest struct {
	Name          *string `json:"name"`
	Role          *string `json:"role"`
	Status        *string `json:"status"`
	OrgID         *string `json:"org_id"`
	SaveCTAState  string  `json:"save_cta_state"`
	SaveCTAAction string  `json:"save_cta_action"`
}

// List returns accounts in the caller's tenant, searchable and paginated.
//
// @Summary      List users
// @Tags         admin-users
// @Produce      json
// @Param        role    query     string  false  "Filter by role"
// @Param        status  query     string  false  "Filter by status"
// @Param        search  query     string  false  "Match against email or name"
// @Param        page    query     int     false  "Page (1-based)"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  envelope
// @Failure      403     {object}  errorEnvelope
// @Router       /api/admin/users [get]
func (h *AdminUserHandler) List(c echo.Context) error {
	actor, err := ctxAuth(c)
	if err != nil {
		return err
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	filter := ports.ListUsersFilter{
		Role:   domain.Role(c.QueryParam("role")),
		Status: domain.UserStatus(c.QueryParam("status")),
		Search: c.QueryParam("search"),
		Page:   page,
		Limit:  limit,
	}

	users, total, err := h.userService.List(c.Request().Context(), actor, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(listResponse{
		Items:      users,
		Pagination: paginate(total, filter.Page, filter.Limit),
	}))
}

// Create provisions an account inside the caller's tenant.
//
// @Summary      Create a user
// @Tags         admin-users
// @Accept       json
// @Produce      json
// @Param        body  body      createUserRequest  true  "Account details"
// @Success      201   {object}  envelope
// @Failure      409   {object}  errorEnvelope
// @Router       /api/admin/users [post]
func (h *AdminUserHandler) Create(c echo.Context) error {
	actor, err := ctxAuth(c)
	if err != nil {
		return err
	}

	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.userService.Create(c.Request().Context(), actor, ports.CreateUserInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     domain.Role(req.Role),
		OrgID:    req.OrgID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ok(user))
}

// Update patches an account. The request must carry the save_cta confirmation
// fields or it is rejected outright.
//
// @Summary      Update a user
// @Tags         admin-users
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "User ID"
// @Param        body  body      updateUserRequest  true  "Fields to change"
// @Success      200   {object}  envelope
// @Failure      400   {object}  errorEnvelope
// @Router       /api/admin/users/{id} [patch]
func (h *AdminUserHandler) Update(c echo.Context) error {
	actor, err := ctxAuth(c)
	if err != nil {
		return err
	}

	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	input := ports.UpdateUserInput{
		Name:          req.Name,
		OrgID:         req.OrgID,
		SaveCTAState:  req.SaveCTAState,
		SaveCTAAction: req.SaveCTAAction,
	}
	if req.Role != nil {
		r := domain.Role(*req.Role)
		input.Role = &r
	}
	if req.Status != nil {
		st := domain.UserStatus(*req.Status)
		input.Status = &st
	}

	user, err := h.userService.Update(c.Request().Context(), actor, c.Param("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(user))
}

// Deactivate soft-deletes an account.
//
// @Summary      Deactivate a user
// @Tags         admin-users
// @Produce      json
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  envelope
// @Failure      403  {object}  errorEnvelope
// @Router       /api/admin/users/{id} [delete]
func (h *AdminUserHandler) Deactivate(c echo.Context) error {
	actor, err := ctxAuth(c)
	if err != nil {
		return err
	}

	if err := h.userService.Deactivate(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okMessage("user deactivated"))
}
