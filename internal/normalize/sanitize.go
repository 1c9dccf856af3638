package normalize

import (
	"net/url"
	"strings"
	"unicode"
)

// SanitizeText strips control characters other than tab, newline and
// carriage return, then trims surrounding whitespace.
func SanitizeText(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\t', '\n', '\r':
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// SanitizeURL returns raw as an http(s) URL, or "" when it cannot be one.
// A value without a scheme is treated as a bare host and gets https://.
func SanitizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(raw), "http") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.String()
	}
	return ""
}
