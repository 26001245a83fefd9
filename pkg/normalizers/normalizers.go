// Package normalizers provides field normalization functions for match signals
package normalizers

import (
	"net/url"
	"strings"
	"unicode"
)

// Stop words stripped from venue names before fuzzy comparison. These carry
// no identity: nearly every venue in the corpus uses some subset of them.
var nameStopWords = map[string]struct{}{
	"retreat":    {},
	"center":     {},
	"centre":     {},
	"yoga":       {},
	"meditation": {},
	"the":        {},
	"le":         {},
	"la":         {},
	"les":        {},
	"de":         {},
	"du":         {},
	"des":        {},
	"et":         {},
}

// NormalizePhone reduces a phone number to its digits. Formatting, country
// prefixes written as "+", and extensions all vary per source.
func NormalizePhone(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// NormalizeEmail normalizes an email address (lowercase, trim)
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeName normalizes a venue name for fuzzy matching:
// lowercase, strip stop words, collapse whitespace.
func NormalizeName(s string) string {
	words := strings.Fields(strings.ToLower(s))
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if _, ok := nameStopWords[w]; ok {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// RootDomain extracts the registrable host from a URL for shared-domain
// matching. The scheme and any leading "www." are dropped; an unparseable
// URL normalizes to "".
func RootDomain(rawURL string) string {
	if strings.TrimSpace(rawURL) == "" {
		return ""
	}

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}

	host := u.Hostname()
	if host == "" {
		// Bare domains like "example.com/path" parse without a host
		u, err = url.Parse("https://" + strings.TrimSpace(rawURL))
		if err != nil {
			return ""
		}
		host = u.Hostname()
	}

	host = strings.ToLower(host)
	return strings.TrimPrefix(host, "www.")
}
