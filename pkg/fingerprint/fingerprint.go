// Package fingerprint derives content fingerprints for duplicate detection
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/Ramsey-B/bramble/pkg/models"
)

// DefaultPrefixChars is how much of the description participates in the
// content hash. Listings on the same page often differ only in trailing
// boilerplate, so the head of the description is the discriminating part.
const DefaultPrefixChars = 300

// minDescriptionChars is the minimum trimmed description length for the
// content hash to be meaningful. Below this we fall back to the composite key.
const minDescriptionChars = 20

// Generate derives the fingerprint for a listing using the default
// description prefix length.
func Generate(l *models.Listing) string {
	return GenerateWithPrefix(l, DefaultPrefixChars)
}

// GenerateWithPrefix derives the fingerprint for a listing. Strongest signal
// first: a source-scoped external ID when present, then a hash of the
// description head, then a composite of the distinguishing fields.
func GenerateWithPrefix(l *models.Listing, prefixChars int) string {
	if l.ExternalID != nil && strings.TrimSpace(*l.ExternalID) != "" {
		return l.Source + ":" + strings.TrimSpace(*l.ExternalID)
	}

	if prefixChars <= 0 {
		prefixChars = DefaultPrefixChars
	}

	desc := strings.TrimSpace(l.Description)
	if len([]rune(desc)) > minDescriptionChars {
		runes := []rune(strings.ToLower(desc))
		if len(runes) > prefixChars {
			runes = runes[:prefixChars]
		}
		return hash(string(runes))
	}

	return hash(compositeKey(l))
}

// compositeKey joins the fields most likely to be stable across re-scrapes of
// the same property when no usable description exists.
func compositeKey(l *models.Listing) string {
	location := ""
	if l.Location != nil {
		location = strings.ToLower(strings.TrimSpace(*l.Location))
	}
	price := ""
	if l.Price != nil {
		price = fmt.Sprintf("%v", *l.Price)
	}
	bedrooms := ""
	if l.Bedrooms != nil {
		bedrooms = fmt.Sprintf("%d", *l.Bedrooms)
	}
	surface := ""
	if l.SurfaceM2 != nil {
		surface = fmt.Sprintf("%v", *l.SurfaceM2)
	}

	return strings.Join([]string{location, price, bedrooms, surface}, "|")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// HasChanged compares two fingerprints to detect changes
func HasChanged(oldFingerprint, newFingerprint string) bool {
	return oldFingerprint != newFingerprint
}
