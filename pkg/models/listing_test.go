package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListingID(t *testing.T) {
	id := ListingID("https://example.com/listings/123")

	assert.Len(t, id, 12)
	// Same URL always derives the same identity
	assert.Equal(t, id, ListingID("https://example.com/listings/123"))
	assert.NotEqual(t, id, ListingID("https://example.com/listings/124"))
}

func TestToListing(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	email := "host@example.com"

	scraped := ScrapedListing{
		Source:       "gite-quebec",
		SourceURL:    "https://example.com/listings/123",
		Title:        "Chalet au bord du lac",
		Description:  "Grand chalet",
		ContactEmail: &email,
	}

	listing := scraped.ToListing(now)

	require.Equal(t, ListingID(scraped.SourceURL), listing.ID)
	assert.Equal(t, "gite-quebec", listing.Source)
	assert.Equal(t, now, listing.DateScraped)
	require.NotNil(t, listing.ContactEmail)
	assert.Equal(t, email, *listing.ContactEmail)

	// An explicit scrape timestamp from the scraper wins over now
	earlier := now.Add(-48 * time.Hour)
	scraped.DateScraped = &earlier
	assert.Equal(t, earlier, scraped.ToListing(now).DateScraped)
}

func TestTruncateTitle(t *testing.T) {
	assert.Equal(t, "short", TruncateTitle("short", 80))
	long := make([]rune, 0, 100)
	for i := 0; i < 100; i++ {
		long = append(long, 'é')
	}
	assert.Len(t, []rune(TruncateTitle(string(long), 80)), 80)
}
