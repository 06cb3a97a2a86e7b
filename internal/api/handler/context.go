package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/proveloce/connect/internal/core/domain"
)

// ctxAuth extracts the claims injected by the Auth middleware into a typed
// AuthContext and performs a fast-fail check before any service call: a
// missing subject or unknown role means the middleware did not run, or the
// token predates a role rename, and the request is rejected with 401.
func ctxAuth(c echo.Context) (domain.AuthContext, error) {
	userID, _ := c.Get("user_id").(string)
	roleStr, _ := c.Get("role").(string)

	if userID == "" {
		return domain.AuthContext{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	role := domain.ParseRole(roleStr)
	if role == "" {
		return domain.AuthContext{}, echo.NewHTTPError(http.StatusUnauthorized, "token carries an unknown role")
	}

	email, _ := c.Get("email").(string)
	name, _ := c.Get("name").(string)
	orgID, _ := c.Get("org_id").(string)

	return domain.AuthContext{
		UserID: userID,
		Email:  email,
		Name:   name,
		Role:   role,
		OrgID:  orgID,
	}, nil
}
