package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/ieltsgenai/prep-api/internal/config"
	"github.com/ieltsgenai/prep-api/internal/handler"
	"github.com/ieltsgenai/prep-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssessmentHandler *handler.AssessmentHandler
	SafetyHandler     *handler.SafetyHandler
	RubricHandler     *handler.RubricHandler
	JWTMiddleware     fiber.Handler
	RateLimiter       fiber.Handler
	Logger            zerolog.Logger
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler(deps.Logger))

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = passThrough
	}
	rateLimiter := deps.RateLimiter
	if rateLimiter == nil {
		rateLimiter = passThrough
	}

	// Scoring costs a model call per request, so it is metered.
	if deps.AssessmentHandler != nil {
		assessments := api.Group("/assessments", jwtMiddleware, rateLimiter)
		deps.AssessmentHandler.Register(assessments)
	}

	if deps.SafetyHandler != nil {
		safety := api.Group("/safety", jwtMiddleware)
		deps.SafetyHandler.Register(safety)
	}

	if deps.RubricHandler != nil {
		deps.RubricHandler.Register(api.Group("/rubrics"))
	}
}

func passThrough(c *fiber.Ctx) error { return c.Next() }
