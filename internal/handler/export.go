package handler

import (
	"errors"
	"path/filepath"

	"github.com/gofiber/fiber/v3"

	"github.com/rcleozier/creator-log/internal/apperr"
	"github.com/rcleozier/creator-log/internal/middleware"
	"github.com/rcleozier/creator-log/internal/snapshot"
)

type ExportHandler struct {
	store *snapshot.Store
}

func NewExportHandler(store *snapshot.Store) *ExportHandler {
	return &ExportHandler{store: store}
}

// Export handles GET /api/cases/export
// Serves the newest snapshot file written by the snapshot command.
func (h *ExportHandler) Export(c fiber.Ctx) error {
	path, err := h.store.LatestPath()
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, middleware.CodeNotFound, "No snapshot available yet")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to read snapshot directory")
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	c.Set(fiber.HeaderContentDisposition, "attachment; filename="+filepath.Base(path))
	return c.SendFile(path)
}
