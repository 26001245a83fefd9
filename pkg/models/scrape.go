package models

import "time"

// ScrapedListing is the message shape scraper collaborators publish. It is a
// Listing without a derived identity; the processor assigns the ID and the
// scrape timestamp on ingest.
type ScrapedListing struct {
	Source      string `json:"source" validate:"required"`
	SourceURL   string `json:"source_url" validate:"required,url"`
	Title       string `json:"title"`
	Description string `json:"description"`

	Location  *string  `json:"location,omitempty"`
	Province  *string  `json:"province,omitempty"`
	Country   *string  `json:"country,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	Price        *float64 `json:"price,omitempty"`
	PriceMonthly *float64 `json:"price_monthly,omitempty"`
	Bedrooms     *int     `json:"bedrooms,omitempty"`
	SurfaceM2    *float64 `json:"surface_m2,omitempty"`
	ListingType  *string  `json:"listing_type,omitempty"`

	ContactEmail *string `json:"contact_email,omitempty"`
	ContactPhone *string `json:"contact_phone,omitempty"`
	Website      *string `json:"website,omitempty"`
	ExternalID   *string `json:"external_id,omitempty"`

	Images    []string `json:"images,omitempty"`
	Amenities []string `json:"amenities,omitempty"`

	DatePublished *time.Time `json:"date_published,omitempty"`
	DateScraped   *time.Time `json:"date_scraped,omitempty"`
}

// ToListing converts the scraped payload into a Listing with its derived
// identity. The scrape timestamp defaults to now when the scraper omitted it.
func (s *ScrapedListing) ToListing(now time.Time) Listing {
	scraped := now.UTC()
	if s.DateScraped != nil {
		scraped = s.DateScraped.UTC()
	}

	return Listing{
		ID:            ListingID(s.SourceURL),
		Source:        s.Source,
		SourceURL:     s.SourceURL,
		Title:         s.Title,
		Description:   s.Description,
		Location:      s.Location,
		Province:      s.Province,
		Country:       s.Country,
		Latitude:      s.Latitude,
		Longitude:     s.Longitude,
		Price:         s.Price,
		PriceMonthly:  s.PriceMonthly,
		Bedrooms:      s.Bedrooms,
		SurfaceM2:     s.SurfaceM2,
		ListingType:   s.ListingType,
		ContactEmail:  s.ContactEmail,
		ContactPhone:  s.ContactPhone,
		Website:       s.Website,
		ExternalID:    s.ExternalID,
		Images:        s.Images,
		Amenities:     s.Amenities,
		DatePublished: s.DatePublished,
		DateScraped:   scraped,
	}
}
