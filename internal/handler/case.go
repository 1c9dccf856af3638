package handler

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/rcleozier/creator-log/internal/middleware"
	"github.com/rcleozier/creator-log/internal/service"
	"github.com/rcleozier/creator-log/pkg/checksum"
)

var validSorts = map[string]bool{
	"":                      true,
	service.SortNewest:      true,
	service.SortOldest:      true,
	service.SortName:        true,
	service.SortSubscribers: true,
}

type CaseHandler struct {
	svc *service.CaseService
}

func NewCaseHandler(svc *service.CaseService) *CaseHandler {
	return &CaseHandler{svc: svc}
}

// List handles GET /api/cases?status=&appealStatus=&search=&sort=
func (h *CaseHandler) List(c fiber.Ctx) error {
	search, errMsg := middleware.ValidateSearch(fiber.Query[string](c, "search"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeInvalidField, errMsg)
	}
	sort := strings.ToLower(strings.TrimSpace(fiber.Query[string](c, "sort")))
	if !validSorts[sort] {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeInvalidField, "sort must be one of newest, oldest, name, subscribers")
	}

	cases, ds := h.svc.List(c.Context(), service.Filter{
		Status:       fiber.Query[string](c, "status"),
		AppealStatus: fiber.Query[string](c, "appealStatus"),
		Search:       search,
		Sort:         sort,
	})

	// The tag covers the dataset and the query, so each filtered view
	// revalidates independently.
	etag := `"` + checksum.Bytes([]byte(ds.Checksum+"?"+string(c.Request().URI().QueryString()))) + `"`
	c.Set(fiber.HeaderETag, etag)
	c.Set(middleware.DataSourceHeader, ds.Source)

	if match := c.Get(fiber.HeaderIfNoneMatch); match != "" && etagMatches(match, etag) {
		return c.SendStatus(fiber.StatusNotModified)
	}
	return c.JSON(cases)
}

// Get handles GET /api/cases/:caseId
func (h *CaseHandler) Get(c fiber.Ctx) error {
	caseID, errMsg := middleware.ValidateCaseID(c.Params("caseId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeInvalidField, errMsg)
	}

	found, err := h.svc.Get(c.Context(), caseID)
	if err != nil {
		return serviceError(c, err, "Case not found")
	}
	return c.JSON(found)
}

func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}
