package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/proveloce/connect/internal/core/ports"
)

type NotificationHandler struct {
	notifications ports.NotificationRepository
}

func NewNotificationHandler(notifications ports.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List returns the caller's notifications, newest first.
//
// @Summary      List notifications
// @Tags         notifications
// @Produce      json
// @Param        unread  query     bool  false  "Only unread"
// @Success      200     {object}  envelope
// @Router       /api/notifications [get]
func (h *NotificationHandler) List(c echo.Context) error {
	actor, err := ctxAuth(c)
	if err != nil {
		return err
	}

	unreadOnly := c.QueryParam("unread") == "true"
	items, err := h.notifications.ListByUser(c.Request().Context(), actor.UserID, unreadOnly)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(items))
}

// MarkRead marks one of the caller's notifications as read.
//
// @Summary      Mark a notification read
// @Tags         notifications
// @Produce      json
// @Param        id   path      string  true  "Notification ID"
// @Success      200  {object}  envelope
// @Failure      404  {object}  errorEnvelope
// @Router       /api/notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	actor, err := ctxAuth(c)
	if err != nil {
		return err
	}

	if err := h.notifications.MarkRead(c.Request().Context(), c.Param("id"), actor.UserID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okMessage("notification read"))
}
