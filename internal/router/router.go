package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/codearena/judge-api/internal/config"
	"github.com/codearena/judge-api/internal/handler"
	"github.com/codearena/judge-api/internal/middleware"
	"github.com/codearena/judge-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ProblemHandler    *handler.ProblemHandler
	JudgeHandler      *handler.JudgeHandler
	SubmissionHandler *handler.SubmissionHandler
	ProgressHandler   *handler.ProgressHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	api.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.ProblemHandler != nil {
		problems := app.Group("/api/v1/problems", jwtMiddleware)
		deps.ProblemHandler.Register(problems)

		authoring := app.Group("/api/v1/problems", jwtMiddleware, middleware.RequireRole("admin"))
		deps.ProblemHandler.RegisterAuthoring(authoring)

		// Run and submit live under a problem's subtree. Evaluations hold an
		// execution-service slot for seconds, so they are rate limited per user.
		if deps.JudgeHandler != nil {
			evaluations := app.Group("/api/v1/problems", jwtMiddleware, middleware.RateLimit("judge", 10, time.Minute))
			deps.JudgeHandler.Register(evaluations)
		}
	}

	if deps.SubmissionHandler != nil {
		submissions := app.Group("/api/v1/submissions", jwtMiddleware)
		deps.SubmissionHandler.Register(submissions)
	}

	if deps.ProgressHandler != nil {
		progress := app.Group("/api/v1/progress", jwtMiddleware)
		deps.ProgressHandler.Register(progress)
	}
}
