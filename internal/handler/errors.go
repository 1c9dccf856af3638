package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/rcleozier/creator-log/internal/apperr"
	"github.com/rcleozier/creator-log/internal/logging"
	"github.com/rcleozier/creator-log/internal/middleware"
)

// serviceError maps a service error onto the standard error envelope.
// notFound is the message used for apperr.ErrNotFound.
func serviceError(c fiber.Ctx, err error, notFound string) error {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidationFailed, err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		return middleware.ErrorResponse(c, fiber.StatusNotFound, middleware.CodeNotFound, notFound)
	}

	logging.Logger.Error().Err(err).
		Str("request_id", middleware.RequestID(c)).
		Str("path", c.Path()).
		Msg("request failed")

	switch {
	case errors.Is(err, apperr.ErrMalformedPayload):
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeMalformedPayload, "Upstream returned an unreadable response")
	case errors.Is(err, apperr.ErrUpstreamUnavailable):
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeUpstreamUnavailable, "Upstream data source is unavailable")
	default:
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Internal server error")
	}
}
