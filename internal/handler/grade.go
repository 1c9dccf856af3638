package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/rcleozier/creator-log/internal/apperr"
	"github.com/rcleozier/creator-log/internal/grading"
	"github.com/rcleozier/creator-log/internal/middleware"
	"github.com/rcleozier/creator-log/internal/model"
	"github.com/rcleozier/creator-log/internal/service"
)

const (
	defaultGradeLimit = 10
	gradeSource       = "CoinGecko API + Custom Grading Algorithm"
	formatFull        = "full"
	formatSummary     = "summary"
)

type GradeHandler struct {
	svc *service.GradeService
	now func() time.Time
}

func NewGradeHandler(svc *service.GradeService) *GradeHandler {
	return &GradeHandler{svc: svc, now: time.Now}
}

type pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

type listMetadata struct {
	Timestamp string `json:"timestamp"`
	Source    string `json:"source,omitempty"`
}

type gradeListResponse struct {
	Success    bool                 `json:"success"`
	Data       []*model.GradeReport `json:"data"`
	Count      int                  `json:"count"`
	Pagination *pagination          `json:"pagination,omitempty"`
	Metadata   listMetadata         `json:"metadata"`
}

type batchRequest struct {
	CoinIDs        json.RawMessage `json:"coinIds"`
	IncludeDetails bool            `json:"includeDetails"`
}

type batchMetadata struct {
	Timestamp      string `json:"timestamp"`
	IncludeDetails bool   `json:"includeDetails"`
}

type batchResponse struct {
	Success   bool          `json:"success"`
	Data      any           `json:"data"`
	Count     int           `json:"count"`
	Requested int           `json:"requested"`
	Metadata  batchMetadata `json:"metadata"`
}

type singleMetadata struct {
	Timestamp string `json:"timestamp"`
	Format    string `json:"format"`
}

type singleResponse struct {
	Success  bool           `json:"success"`
	Data     any            `json:"data"`
	Metadata singleMetadata `json:"metadata"`
}

func (h *GradeHandler) timestamp() string {
	return h.now().UTC().Format(time.RFC3339Nano)
}

// Get handles GET /api/grade/:coinId and returns the bare report.
func (h *GradeHandler) Get(c fiber.Ctx) error {
	coinID, errMsg := middleware.ValidateCoinID(c.Params("coinId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeInvalidField, errMsg)
	}

	report, err := h.svc.Grade(c.Context(), coinID)
	if err != nil {
		return serviceError(c, err, "Coin not found")
	}
	return c.JSON(report)
}

// GetEnveloped handles GET /api/grades/:coinId?format=full|summary
func (h *GradeHandler) GetEnveloped(c fiber.Ctx) error {
	coinID, errMsg := middleware.ValidateCoinID(c.Params("coinId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeInvalidField, errMsg)
	}
	format := fiber.Query[string](c, "format", formatFull)
	if format != formatFull && format != formatSummary {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeInvalidField, "format must be full or summary")
	}

	report, err := h.svc.Grade(c.Context(), coinID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   "Coin not found",
				"message": fmt.Sprintf("No grade data available for %s", coinID),
			})
		}
		return serviceError(c, err, "Coin not found")
	}

	var data any = report
	if format == formatSummary {
		data = grading.Summary(report)
	}
	return c.JSON(singleResponse{
		Success:  true,
		Data:     data,
		Metadata: singleMetadata{Timestamp: h.timestamp(), Format: format},
	})
}

// List handles GET /api/grades?coins=a,b or GET /api/grades?limit=&offset=
func (h *GradeHandler) List(c fiber.Ctx) error {
	if raw := fiber.Query[string](c, "coins"); raw != "" {
		ids, errMsg := middleware.ParseCoinList(raw)
		if errMsg != "" {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeInvalidField, errMsg)
		}
		reports, err := h.svc.Batch(c.Context(), ids)
		if err != nil {
			return serviceError(c, err, "No grades")
		}
		return c.JSON(gradeListResponse{
			Success:  true,
			Data:     reports,
			Count:    len(reports),
			Metadata: listMetadata{Timestamp: h.timestamp()},
		})
	}

	limit := fiber.Query[int](c, "limit", defaultGradeLimit)
	offset := fiber.Query[int](c, "offset", 0)
	if limit < 1 || limit > h.svc.BatchMax() {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeInvalidField,
			fmt.Sprintf("limit must be between 1 and %d", h.svc.BatchMax()))
	}
	if offset < 0 {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeInvalidField, "offset must not be negative")
	}

	reports, err := h.svc.Top(c.Context(), limit, offset)
	if err != nil {
		return serviceError(c, err, "No grades")
	}
	return c.JSON(gradeListResponse{
		Success:    true,
		Data:       reports,
		Count:      len(reports),
		Pagination: &pagination{Limit: limit, Offset: offset, Total: len(reports)},
		Metadata:   listMetadata{Timestamp: h.timestamp(), Source: gradeSource},
	})
}

// Batch handles POST /api/grades {coinIds, includeDetails}
func (h *GradeHandler) Batch(c fiber.Ctx) error {
	var req batchRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidationFailed, "Invalid JSON body")
	}

	var rawIDs []string
	if len(req.CoinIDs) == 0 || json.Unmarshal(req.CoinIDs, &rawIDs) != nil || rawIDs == nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidationFailed, "coinIds must be an array of coin IDs")
	}

	ids := make([]string, 0, len(rawIDs))
	for _, raw := range rawIDs {
		id, errMsg := middleware.ValidateCoinID(raw)
		if errMsg != "" {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeInvalidField, errMsg)
		}
		ids = append(ids, id)
	}

	reports, err := h.svc.Batch(c.Context(), ids)
	if err != nil {
		return serviceError(c, err, "No grades")
	}

	var data any = reports
	if !req.IncludeDetails {
		briefs := make([]model.GradeBrief, 0, len(reports))
		for _, r := range reports {
			briefs = append(briefs, r.Brief())
		}
		data = briefs
	}

	return c.JSON(batchResponse{
		Success:   true,
		Data:      data,
		Count:     len(reports),
		Requested: len(rawIDs),
		Metadata:  batchMetadata{Timestamp: h.timestamp(), IncludeDetails: req.IncludeDetails},
	})
}
