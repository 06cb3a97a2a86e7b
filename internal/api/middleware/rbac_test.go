package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/proveloce/connect/internal/core/domain"
)

func TestRBAC_Allows(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("role", "admin")

	called := false
	mw := RBAC(domain.RoleAdmin, domain.RoleSuperAdmin)
	handler := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRBAC_Forbids(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("role", "expert")

	mw := RBAC(domain.RoleAdmin, domain.RoleSuperAdmin)
	handler := mw(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRequireCapability(t *testing.T) {
	e := echo.New()

	run := func(role string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set("role", role)

		mw := RequireCapability(domain.CapUpdateConfig)
		handler := mw(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})
		if err := handler(c); err != nil {
			e.HTTPErrorHandler(err, c)
		}
		return rec.Code
	}

	if code := run("superadmin"); code != http.StatusOK {
		t.Fatalf("expected superadmin allowed, got %d", code)
	}
	if code := run("admin"); code != http.StatusForbidden {
		t.Fatalf("expected admin forbidden, got %d", code)
	}
}
