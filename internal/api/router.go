package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/proveloce/connect/internal/api/handler"
	"github.com/proveloce/connect/internal/api/middleware"
	"github.com/proveloce/connect/internal/core/domain"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Auth          *handler.AuthHandler
	Applications  *handler.ApplicationHandler
	Tickets       *handler.TicketHandler
	Tasks         *handler.TaskHandler
	AdminUsers    *handler.AdminUserHandler
	Config        *handler.ConfigHandler
	Notifications *handler.NotificationHandler
	Health        *handler.HealthHandler
}

// RouterConfig carries the cross-cutting settings the router needs.
type RouterConfig struct {
	JWTSecret   string
	FrontendURL string
	Logger      zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(h Handlers, cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(cfg.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("proveloce"))
	if cfg.FrontendURL != "" {
		e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
			AllowOrigins:     []string{cfg.FrontendURL},
			AllowCredentials: true,
		}))
	}

	authRequired := middleware.Auth(cfg.JWTSecret)
	staffOnly := middleware.RBAC(domain.RoleAdmin, domain.RoleSuperAdmin)

	// --- Health probes (no auth required) ---
	e.GET("/health", h.Health.Live)
	e.GET("/health/ready", h.Health.Ready)
	e.GET("/metrics", echoprometheus.NewHandler())

	// --- Auth ---
	auth := e.Group("/api/auth")
	auth.POST("/signup", h.Auth.Signup)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout, authRequired)
	auth.GET("/me", h.Auth.Me, authRequired)
	auth.GET("/google", h.Auth.GoogleLogin)
	auth.GET("/google/callback", h.Auth.GoogleCallback)

	// --- Public configuration tiers ---
	e.GET("/api/config/public", h.Config.Public)
	e.GET("/api/configuration", h.Config.Live)

	// --- Expert applications (owner side) ---
	apps := e.Group("/api/expert-application", authRequired)
	apps.GET("", h.Applications.GetMine)
	apps.POST("", h.Applications.UpdateMine)
	apps.POST("/submit", h.Applications.Submit)

	// --- Expert applications (review side) ---
	review := e.Group("/api/applications", authRequired, middleware.RequireCapability(domain.CapReviewApplications))
	review.GET("", h.Applications.List)
	review.POST("/:id/approve", h.Applications.Approve)
	review.POST("/:id/reject", h.Applications.Reject)
	review.POST("/:id/remove", h.Applications.Remove)

	// --- Help-desk tickets ---
	tickets := e.Group("/api/helpdesk/tickets", authRequired)
	tickets.POST("", h.Tickets.Create)
	tickets.GET("", h.Tickets.List)
	tickets.GET("/:id", h.Tickets.Get)
	tickets.PATCH("/:id/status", h.Tickets.UpdateStatus, staffOnly)
	tickets.PATCH("/:id/assign", h.Tickets.Assign, middleware.RequireCapability(domain.CapAssignTickets))
	tickets.POST("/:id/reassign", h.Tickets.Reassign, middleware.RequireCapability(domain.CapAssignTickets))
	tickets.POST("/:id/unassign", h.Tickets.Unassign, middleware.RequireCapability(domain.CapAssignTickets))
	tickets.POST("/:id/messages", h.Tickets.Respond, staffOnly)

	// --- Tasks (managed side) ---
	tasks := e.Group("/api/tasks", authRequired)
	tasks.POST("", h.Tasks.Create, middleware.RequireCapability(domain.CapManageTasks))
	tasks.GET("", h.Tasks.List, middleware.RequireCapability(domain.CapManageTasks))
	tasks.GET("/:id", h.Tasks.Get)
	tasks.PATCH("/:id", h.Tasks.Update, middleware.RequireCapability(domain.CapManageTasks))
	tasks.POST("/:id/assign", h.Tasks.Assign, middleware.RequireCapability(domain.CapManageTasks))

	// --- Task assignments (expert side) ---
	expertGate := middleware.RBAC(domain.RoleExpert, domain.RoleAdmin, domain.RoleSuperAdmin)
	expertTasks := e.Group("/api/expert/tasks", authRequired, expertGate)
	expertTasks.GET("", h.Tasks.ListMine)
	expertTasks.POST("/:id/accept", h.Tasks.Accept)
	expertTasks.POST("/:id/decline", h.Tasks.Decline)
	expertTasks.POST("/:id/complete", h.Tasks.Complete)

	// --- Account administration ---
	users := e.Group("/api/admin/users", authRequired, middleware.RequireCapability(domain.CapManageUsers))
	users.GET("", h.AdminUsers.List)
	users.POST("", h.AdminUsers.Create)
	users.PATCH("/:id", h.AdminUsers.Update)
	users.DELETE("/:id", h.AdminUsers.Deactivate)

	// --- Configuration administration ---
	e.PATCH("/api/admin/config", h.Config.Update, authRequired, middleware.RequireCapability(domain.CapUpdateConfig))

	// --- Notifications ---
	notifications := e.Group("/api/notifications", authRequired)
	notifications.GET("", h.Notifications.List)
	notifications.POST("/:id/read", h.Notifications.MarkRead)

	return e
}
