package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rcleozier/creator-log/internal/middleware"
	"github.com/rcleozier/creator-log/internal/service"
)

type StatsHandler struct {
	svc *service.CaseService
}

func NewStatsHandler(svc *service.CaseService) *StatsHandler {
	return &StatsHandler{svc: svc}
}

// GetStats handles GET /api/stats
func (h *StatsHandler) GetStats(c fiber.Ctx) error {
	return c.JSON(h.svc.Stats(c.Context()))
}

// GetAnalytics handles GET /api/analytics
func (h *StatsHandler) GetAnalytics(c fiber.Ctx) error {
	a := h.svc.Analytics(c.Context())
	c.Set(middleware.DataSourceHeader, a.Source)
	return c.JSON(a)
}
