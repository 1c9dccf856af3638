package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rcleozier/creator-log/internal/service"
)

type TerminationHandler struct {
	svc *service.CaseService
}

func NewTerminationHandler(svc *service.CaseService) *TerminationHandler {
	return &TerminationHandler{svc: svc}
}

// List handles GET /api/terminations
// Returns the live sheet rows as-is. Unlike /api/cases there is no fallback.
func (h *TerminationHandler) List(c fiber.Ctx) error {
	resp, err := h.svc.Rows(c.Context())
	if err != nil {
		return serviceError(c, err, "No rows")
	}
	return c.JSON(resp)
}
