package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rcleozier/creator-log/internal/service"
)

const defaultCoinsPerPage = 100

type CoinHandler struct {
	svc *service.GradeService
}

func NewCoinHandler(svc *service.GradeService) *CoinHandler {
	return &CoinHandler{svc: svc}
}

// List handles GET /api/coins?page=&per_page=
// Out-of-range values are clamped rather than rejected.
func (h *CoinHandler) List(c fiber.Ctx) error {
	page := fiber.Query[int](c, "page", 1)
	perPage := fiber.Query[int](c, "per_page", defaultCoinsPerPage)

	coins, err := h.svc.Markets(c.Context(), page, perPage)
	if err != nil {
		return serviceError(c, err, "No market data")
	}
	return c.JSON(coins)
}
