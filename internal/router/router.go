package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/config"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/handler"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/middleware"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/models"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	TrackerHandler *handler.TrackerHandler
	UserHandler    *handler.UserHandler
	ClassHandler   *handler.ClassHandler
	StudentHandler *handler.StudentHandler
	CreditHandler  *handler.CreditHandler
	MessageHandler *handler.MessageHandler
	AuditHandler   *handler.AuditHandler
	HealthProbes   map[string]handler.HealthProbe
	JWTMiddleware  fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Tracker routes are scoped to the caller's session; writes are rate limited per user or IP.
	if deps.TrackerHandler != nil {
		tracker := api.Group("/tracker")
		deps.TrackerHandler.Register(tracker)
		deps.TrackerHandler.RegisterWrites(tracker, middleware.RateLimit("tracker", cfg.RateLimitTracker, time.Second))
	}

	if deps.UserHandler != nil {
		deps.UserHandler.Register(api.Group("/users", jwtMiddleware))
	}
	if deps.ClassHandler != nil {
		deps.ClassHandler.Register(api.Group("/classes", jwtMiddleware))
	}
	if deps.StudentHandler != nil {
		deps.StudentHandler.Register(api.Group("/students", jwtMiddleware))
	}
	if deps.CreditHandler != nil {
		deps.CreditHandler.Register(api.Group("/credits", jwtMiddleware))
	}
	if deps.MessageHandler != nil {
		deps.MessageHandler.Register(api.Group("/messages", jwtMiddleware))
	}

	// Audit trail
	if deps.AuditHandler != nil {
		audit := api.Group("/audit", jwtMiddleware, middleware.RequireRole(models.RoleAdmin, models.RoleModerator))
		deps.AuditHandler.Register(audit)
	}
}
