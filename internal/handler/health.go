package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/rcleozier/creator-log/internal/model"
	"github.com/rcleozier/creator-log/internal/service"
)

// Version is reported by the readiness probe. Overridden at build time.
var Version = "dev"

type HealthHandler struct {
	pool    *pgxpool.Pool
	rdb     *redis.Client
	cases   *service.CaseService
	startAt time.Time
}

// NewHealthHandler builds the probes. pool and rdb may be nil when the
// archive or Redis tier is disabled.
func NewHealthHandler(pool *pgxpool.Pool, rdb *redis.Client, cases *service.CaseService) *HealthHandler {
	return &HealthHandler{
		pool:    pool,
		rdb:     rdb,
		cases:   cases,
		startAt: time.Now(),
	}
}

// Live handles GET /health/live: the liveness probe.
func (h *HealthHandler) Live(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready handles GET /health/ready: readiness with dependency checks.
// A configured database or Redis that does not answer, or an empty case
// list, marks the service degraded. Serving from a fallback tier does not.
func (h *HealthHandler) Ready(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
	defer cancel()

	checks := fiber.Map{
		"database": checkDB(ctx, h.pool),
		"redis":    checkRedis(ctx, h.rdb),
		"data":     checkData(ctx, h.cases),
	}

	overallStatus := "healthy"
	for _, check := range checks {
		if m, ok := check.(fiber.Map); ok && m["status"] == "down" {
			overallStatus = "degraded"
		}
	}

	resp := fiber.Map{
		"status":         overallStatus,
		"checks":         checks,
		"uptime_seconds": int(time.Since(h.startAt).Seconds()),
		"version":        Version,
	}

	status := fiber.StatusOK
	if overallStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(resp)
}

func checkDB(ctx context.Context, pool *pgxpool.Pool) fiber.Map {
	if pool == nil {
		return fiber.Map{"status": "disabled"}
	}

	start := time.Now()
	err := pool.Ping(ctx)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return fiber.Map{
			"status":     "down",
			"latency_ms": latency,
			"error":      "connection failed",
		}
	}
	return fiber.Map{
		"status":     "up",
		"latency_ms": latency,
	}
}

func checkRedis(ctx context.Context, rdb *redis.Client) fiber.Map {
	if rdb == nil {
		return fiber.Map{"status": "disabled"}
	}

	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return fiber.Map{
			"status":     "down",
			"latency_ms": latency,
			"error":      "connection failed",
		}
	}
	return fiber.Map{
		"status":     "up",
		"latency_ms": latency,
	}
}

// checkData reports the cached dataset only; a probe never triggers a
// sheet fetch.
func checkData(ctx context.Context, cases *service.CaseService) fiber.Map {
	if cases == nil {
		return fiber.Map{"status": "disabled"}
	}
	ds, ok := cases.Peek(ctx)
	if !ok {
		return fiber.Map{"status": "cold"}
	}

	status := "up"
	switch ds.Source {
	case model.SourceSheet:
	case model.SourceEmpty:
		status = "down"
	default:
		status = "fallback"
	}
	return fiber.Map{
		"status":     status,
		"source":     ds.Source,
		"cases":      len(ds.Cases),
		"fetched_at": ds.FetchedAt.Format(time.RFC3339),
	}
}
