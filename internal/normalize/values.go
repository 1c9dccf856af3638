package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/rcleozier/creator-log/internal/model"
)

var statusSepRe = regexp.MustCompile(`[\s-]+`)

// normalizeStatus uppercases raw and joins words with underscores, so
// "under review" and "Under-Review" both read UNDER_REVIEW.
func normalizeStatus(raw string) string {
	return statusSepRe.ReplaceAllString(strings.ToUpper(strings.TrimSpace(raw)), "_")
}

// CaseStatus normalises a channel status cell. Empty defaults to TERMINATED.
func CaseStatus(raw string) model.CaseStatus {
	if s := normalizeStatus(raw); s != "" {
		return model.CaseStatus(s)
	}
	return model.StatusTerminated
}

// AppealStatus normalises an appeal status cell. Empty defaults to PENDING.
func AppealStatus(raw string) model.AppealStatus {
	if s := normalizeStatus(raw); s != "" {
		return model.AppealStatus(s)
	}
	return model.AppealPending
}

// Monetized reads a monetization cell: yes/no spellings become a flag and
// any other non-empty text is kept as written.
func Monetized(raw string) *model.Monetization {
	raw = strings.TrimSpace(raw)
	switch strings.ToLower(raw) {
	case "":
		return nil
	case "yes", "true", "1", "y":
		return model.MonetizedFlag(true)
	case "no", "false", "0", "n":
		return model.MonetizedFlag(false)
	}
	return model.MonetizedText(raw)
}

// maxSubscriberCount bounds parsed counts; larger values are typos or
// overflow and are dropped.
const maxSubscriberCount = math.MaxInt32

// SubscriberCount parses counts such as "12,300", "1.2K" or "3M". It
// returns nil when raw is not a count.
func SubscriberCount(raw string) *int {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimSuffix(s, "+")
	if s == "" {
		return nil
	}

	mult := 1.0
	switch {
	case strings.HasSuffix(s, "K"):
		mult, s = 1e3, strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "M"):
		mult, s = 1e6, strings.TrimSuffix(s, "M")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil
	}
	v := math.Round(f * mult)
	if v > maxSubscriberCount {
		return nil
	}
	n := int(v)
	return &n
}
