package middleware

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gofiber/fiber/v3"
)

// Field limits for path and query parameters.
const (
	MaxCaseIDLen = 64
	MaxCoinIDLen = 100
	MaxSearchLen = 200
)

// coinIDRe matches CoinGecko coin IDs, e.g. "bitcoin", "usd-coin", "wrapped-steth".
var coinIDRe = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// Error codes used in the error envelope.
const (
	CodeInvalidField        = "INVALID_FIELD"
	CodeValidationFailed    = "VALIDATION_FAILED"
	CodeNotFound            = "NOT_FOUND"
	CodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	CodeMalformedPayload    = "MALFORMED_PAYLOAD"
	CodeInternal            = "INTERNAL_ERROR"
)

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// ValidateCaseID decodes a case ID path segment and checks its length.
// Explicit IDs come straight from the sheet, so any printable text is
// accepted.
func ValidateCaseID(raw string) (string, string) {
	id, err := url.PathUnescape(raw)
	if err != nil || !utf8.ValidString(id) {
		return "", "caseId is not a valid path segment"
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "caseId is required"
	}
	if utf8.RuneCountInString(id) > MaxCaseIDLen {
		return "", "caseId must be at most 64 characters"
	}
	if strings.IndexFunc(id, unicode.IsControl) >= 0 {
		return "", "caseId contains invalid characters"
	}
	return id, ""
}

// ValidateCoinID normalizes a coin ID to lowercase and checks its format.
func ValidateCoinID(id string) (string, string) {
	id = strings.TrimSpace(strings.ToLower(id))
	if id == "" {
		return "", "coinId is required"
	}
	if len(id) > MaxCoinIDLen {
		return "", "coinId must be at most 100 characters"
	}
	if !coinIDRe.MatchString(id) {
		return "", "coinId contains invalid characters"
	}
	return id, ""
}

// ParseCoinList splits a comma-separated coin list, validating each entry
// and dropping blanks and duplicates.
func ParseCoinList(raw string) ([]string, string) {
	seen := make(map[string]bool)
	ids := []string{}
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		id, msg := ValidateCoinID(part)
		if msg != "" {
			return nil, msg
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, "coins must list at least one coin ID"
	}
	return ids, ""
}

// ValidateSearch trims a search query and enforces its length limit.
func ValidateSearch(q string) (string, string) {
	q = strings.TrimSpace(q)
	if len([]rune(q)) > MaxSearchLen {
		return "", "search must be at most 200 characters"
	}
	return q, ""
}
