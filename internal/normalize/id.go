package normalize

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	maxURLIDLen  = 20
	maxSlugIDLen = 30
)

var (
	caseIDPrefixRe = regexp.MustCompile(`(?i)^case-`)
	nonSlugRe      = regexp.MustCompile(`[^a-z0-9]+`)
)

// DeriveID picks a stable case ID for a row. Sources are tried in order:
// the explicit ID column, the channel URL, the channel name slug, and
// finally the 1-based row index. Only the last depends on row position.
func DeriveID(explicitID, channelURL, channelName string, index int) string {
	if id := strings.TrimSpace(caseIDPrefixRe.ReplaceAllString(strings.TrimSpace(explicitID), "")); id != "" {
		return id
	}
	if id := urlID(channelURL); id != "" {
		return id
	}
	if slug := Slugify(channelName); slug != "" {
		return slug
	}
	return fmt.Sprintf("case-%03d", index)
}

// urlID reduces an absolute URL to its last non-empty path segment, e.g.
// https://youtube.com/@Foo123 -> foo123. Relative or bare-host values yield "".
func urlID(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	var last string
	for _, seg := range strings.Split(u.EscapedPath(), "/") {
		if seg != "" {
			last = seg
		}
	}
	if last == "" {
		return ""
	}
	id := strings.ToLower(strings.Replace(last, "@", "", 1))
	return truncate(id, maxURLIDLen)
}

// Slugify lowercases s, collapses every run of characters outside [a-z0-9]
// into a single dash, trims dashes at both ends and truncates to 30 runes.
func Slugify(s string) string {
	slug := nonSlugRe.ReplaceAllString(strings.ToLower(s), "-")
	return truncate(strings.Trim(slug, "-"), maxSlugIDLen)
}

// CanonicalID reduces a requested or stored ID to the form used for
// lookups: lowercase, trimmed, without a "case-" prefix.
func CanonicalID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	return strings.TrimPrefix(id, "case-")
}

// MatchID reports whether a requested ID addresses the case with ID
// caseID. Comparison is case-insensitive and ignores a "case-" prefix.
// Purely numeric IDs also match across zero padding, so 14 finds 014.
func MatchID(requested, caseID string) bool {
	a, b := CanonicalID(requested), CanonicalID(caseID)
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	if isDigits(a) && isDigits(b) {
		return strings.TrimLeft(a, "0") == strings.TrimLeft(b, "0")
	}
	return false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
