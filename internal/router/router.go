package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/rcleozier/creator-log/internal/handler"
	"github.com/rcleozier/creator-log/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Case        *handler.CaseHandler
	Termination *handler.TerminationHandler
	Stats       *handler.StatsHandler
	Export      *handler.ExportHandler
	Coin        *handler.CoinHandler
	Grade       *handler.GradeHandler
	Health      *handler.HealthHandler
}

// Limiters holds the per-group rate limiters. A nil limiter disables
// limiting for its group.
type Limiters struct {
	Cases  *middleware.RateLimiter
	Grades *middleware.RateLimiter
	Coins  *middleware.RateLimiter
	Export *middleware.RateLimiter
}

// DefaultLimiters returns the production rate limits.
func DefaultLimiters() *Limiters {
	return &Limiters{
		Cases:  middleware.NewCaseRateLimiter(),
		Grades: middleware.NewGradeRateLimiter(),
		Coins:  middleware.NewCoinRateLimiter(),
		Export: middleware.NewExportRateLimiter(),
	}
}

// Stop ends every limiter's background sweep.
func (l *Limiters) Stop() {
	for _, rl := range []*middleware.RateLimiter{l.Cases, l.Grades, l.Coins, l.Export} {
		if rl != nil {
			rl.Stop()
		}
	}
}

func limit(rl *middleware.RateLimiter) fiber.Handler {
	if rl == nil {
		return func(c fiber.Ctx) error { return c.Next() }
	}
	return rl.Handler()
}

// Setup configures the middleware stack and all API routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, l *Limiters, corsOrigins string) {
	if l == nil {
		l = &Limiters{}
	}

	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(middleware.NewRequestLogger())
	app.Use(handler.MetricsMiddleware())
	app.Use(middleware.NewCORS(corsOrigins))

	// Probes and metrics (outside the API group, never rate limited)
	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/metrics", handler.MetricsHandler())

	// API routes
	api := app.Group("/api")

	// Case tracker routes
	cases := limit(l.Cases)
	api.Get("/cases/export", limit(l.Export), h.Export.Export)
	api.Get("/cases/:caseId", cases, h.Case.Get)
	api.Get("/cases", cases, h.Case.List)
	api.Get("/terminations", cases, h.Termination.List)
	api.Get("/stats", cases, h.Stats.GetStats)
	api.Get("/analytics", cases, h.Stats.GetAnalytics)

	// Market data and grading routes
	api.Get("/coins", limit(l.Coins), h.Coin.List)
	grades := limit(l.Grades)
	api.Get("/grade/:coinId", grades, h.Grade.Get)
	api.Get("/grades/:coinId", grades, h.Grade.GetEnveloped)
	api.Get("/grades", grades, h.Grade.List)
	api.Post("/grades", grades, h.Grade.Batch)
}
