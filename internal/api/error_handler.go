package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/proveloce/connect/internal/core/domain"
)

// apiError is the machine-readable error payload. Code values are stable
// contract strings the web client switches on; Message is for humans.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Success bool     `json:"success"`
	Error   apiError `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status and stable error code.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"success": false, "error": {...}}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, payload := resolveError(err, log, c)
		_ = c.JSON(status, errorEnvelope{Success: false, Error: payload})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, apiError) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, apiError{Code: httpCode(he.Code), Message: fmt.Sprintf("%v", he.Message)}
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, apiError{Code: "VALIDATION_FAILED", Message: err.Error()}
	case errors.Is(err, domain.ErrReasonRequired):
		return http.StatusBadRequest, apiError{Code: "REASON_REQUIRED", Message: "a rejection reason is required"}
	case errors.Is(err, domain.ErrConfirmationGate):
		return http.StatusBadRequest, apiError{Code: "CONFIRMATION_REQUIRED", Message: "explicit confirmation required before saving"}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, apiError{Code: "INVALID_CREDENTIALS", Message: "invalid email or password"}
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, apiError{Code: "INVALID_TOKEN", Message: "invalid or expired token"}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, apiError{Code: "FORBIDDEN", Message: "access forbidden"}
	case errors.Is(err, domain.ErrTenantMismatch):
		return http.StatusForbidden, apiError{Code: "TENANT_MISMATCH", Message: "resource belongs to another organization"}
	case errors.Is(err, domain.ErrNotOwner):
		return http.StatusForbidden, apiError{Code: "NOT_OWNER", Message: "not the resource owner"}
	case errors.Is(err, domain.ErrNotAssignee):
		return http.StatusForbidden, apiError{Code: "NOT_ASSIGNEE", Message: "not the ticket assignee"}
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, apiError{Code: "USER_NOT_FOUND", Message: "user not found"}
	case errors.Is(err, domain.ErrApplicationNotFound):
		return http.StatusNotFound, apiError{Code: "APPLICATION_NOT_FOUND", Message: "application not found"}
	case errors.Is(err, domain.ErrTicketNotFound):
		return http.StatusNotFound, apiError{Code: "TICKET_NOT_FOUND", Message: "ticket not found"}
	case errors.Is(err, domain.ErrTaskNotFound):
		return http.StatusNotFound, apiError{Code: "TASK_NOT_FOUND", Message: "task not found"}
	case errors.Is(err, domain.ErrAssignmentNotFound):
		return http.StatusNotFound, apiError{Code: "ASSIGNMENT_NOT_FOUND", Message: "task assignment not found"}
	case errors.Is(err, domain.ErrNotificationNotFound):
		return http.StatusNotFound, apiError{Code: "NOTIFICATION_NOT_FOUND", Message: "notification not found"}
	case errors.Is(err, domain.ErrConfigNotFound):
		return http.StatusNotFound, apiError{Code: "CONFIG_NOT_FOUND", Message: "configuration key not found"}
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, apiError{Code: "USER_EXISTS", Message: "user already exists"}
	case errors.Is(err, domain.ErrAlreadyResponded):
		return http.StatusConflict, apiError{Code: "ALREADY_RESPONDED", Message: "ticket already has a response"}
	case errors.Is(err, domain.ErrEditLimitReached):
		return http.StatusConflict, apiError{Code: "EDIT_LIMIT_REACHED", Message: "response edit limit reached"}
	case errors.Is(err, domain.ErrTicketLocked):
		return http.StatusConflict, apiError{Code: "TICKET_LOCKED", Message: "ticket is locked by another assignment"}
	case errors.Is(err, domain.ErrTicketFinalized):
		return http.StatusConflict, apiError{Code: "TICKET_FINALIZED", Message: "ticket is resolved or closed"}
	case errors.Is(err, domain.ErrAlreadyAssigned):
		return http.StatusConflict, apiError{Code: "ALREADY_ASSIGNED", Message: "expert already assigned to task"}
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusUnprocessableEntity, apiError{Code: "INVALID_TRANSITION", Message: err.Error()}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, apiError{Code: "INTERNAL", Message: "internal server error"}
}

func httpCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	default:
		return "INTERNAL"
	}
}
