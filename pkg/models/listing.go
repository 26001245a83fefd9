// Package models contains the core domain types for the listing pipeline
package models

import (
	"crypto/md5"
	"encoding/hex"
	"time"
)

// Listing is a single scraped listing. Optional fields are pointers so that
// "absent" and "zero" stay distinguishable through matching and merging.
type Listing struct {
	ID          string `json:"id" validate:"required"`
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
	DateScraped   time.Time  `json:"date_scraped"`
}

// ListingID derives the stable listing identifier from its source URL.
// The ID is the first 12 hex characters of the md5 of the URL, which keeps
// re-scrapes of the same page mapping to the same row.
func ListingID(sourceURL string) string {
	sum := md5.Sum([]byte(sourceURL))
	return hex.EncodeToString(sum[:])[:12]
}

// HasCoordinates reports whether both latitude and longitude are present.
func (l *Listing) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}
