package merging

import (
	"strings"
	"time"

	"github.com/Ramsey-B/bramble/pkg/models"
)

// Completeness counts the populated non-identity fields of a listing. A
// string field counts only when non-empty after trimming. The identity and
// provenance fields (id, source, source URL, scrape date) are excluded: they
// are always present and say nothing about how much the listing tells a
// reader.
func Completeness(l *models.Listing) int {
	score := 0

	if strings.TrimSpace(l.Title) != "" {
		score++
	}
	if strings.TrimSpace(l.Description) != "" {
		score++
	}

	for _, p := range []*string{
		l.Location, l.Province, l.Country, l.ListingType,
		l.ContactEmail, l.ContactPhone, l.Website, l.ExternalID,
	} {
		if p != nil && strings.TrimSpace(*p) != "" {
			score++
		}
	}
	for _, p := range []*float64{l.Latitude, l.Longitude, l.Price, l.PriceMonthly, l.SurfaceM2} {
		if p != nil {
			score++
		}
	}
	if l.Bedrooms != nil {
		score++
	}
	if len(l.Images) > 0 {
		score++
	}
	if len(l.Amenities) > 0 {
		score++
	}
	if l.DatePublished != nil {
		score++
	}

	return score
}

// fold copies information from a secondary member into the primary without
// ever overwriting something the primary already has. Identity fields are
// untouched: the golden record keeps the primary's provenance.
func fold(primary *models.Listing, secondary *models.Listing) {
	if strings.TrimSpace(primary.Title) == "" && strings.TrimSpace(secondary.Title) != "" {
		primary.Title = secondary.Title
	}
	if strings.TrimSpace(primary.Description) == "" && strings.TrimSpace(secondary.Description) != "" {
		primary.Description = secondary.Description
	}

	primary.Location = adoptString(primary.Location, secondary.Location)
	primary.Province = adoptString(primary.Province, secondary.Province)
	primary.Country = adoptString(primary.Country, secondary.Country)
	primary.ListingType = adoptString(primary.ListingType, secondary.ListingType)
	primary.ContactEmail = adoptString(primary.ContactEmail, secondary.ContactEmail)
	primary.ContactPhone = adoptString(primary.ContactPhone, secondary.ContactPhone)
	primary.Website = adoptString(primary.Website, secondary.Website)
	primary.ExternalID = adoptString(primary.ExternalID, secondary.ExternalID)

	primary.Latitude = adoptFloat(primary.Latitude, secondary.Latitude)
	primary.Longitude = adoptFloat(primary.Longitude, secondary.Longitude)
	primary.Price = adoptFloat(primary.Price, secondary.Price)
	primary.PriceMonthly = adoptFloat(primary.PriceMonthly, secondary.PriceMonthly)
	primary.SurfaceM2 = adoptFloat(primary.SurfaceM2, secondary.SurfaceM2)

	if primary.Bedrooms == nil {
		primary.Bedrooms = secondary.Bedrooms
	}

	primary.Images = unionLists(primary.Images, secondary.Images)
	primary.Amenities = unionLists(primary.Amenities, secondary.Amenities)

	primary.DatePublished = adoptTime(primary.DatePublished, secondary.DatePublished)
}

// adoptString treats whitespace-only values as absent on both sides, so a
// blank primary field never blocks a secondary's real value.
func adoptString(primary, secondary *string) *string {
	if primary != nil && strings.TrimSpace(*primary) != "" {
		return primary
	}
	if secondary != nil && strings.TrimSpace(*secondary) != "" {
		return secondary
	}
	return primary
}

func adoptFloat(primary, secondary *float64) *float64 {
	if primary != nil {
		return primary
	}
	return secondary
}

func adoptTime(primary, secondary *time.Time) *time.Time {
	if primary != nil {
		return primary
	}
	return secondary
}

// unionLists appends the secondary's values the primary doesn't already have,
// preserving the primary's order.
func unionLists(primary, secondary []string) []string {
	if len(secondary) == 0 {
		return primary
	}

	seen := make(map[string]struct{}, len(primary))
	for _, v := range primary {
		seen[v] = struct{}{}
	}

	result := primary
	for _, v := range secondary {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
