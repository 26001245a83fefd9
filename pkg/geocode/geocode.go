// Package geocode resolves location strings to coordinates, best effort
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/bramble/pkg/throttle"
	"github.com/Ramsey-B/bramble/pkg/tracing"
)

// Point is a resolved coordinate pair.
type Point struct {
	Latitude  float64
	Longitude float64
}

// Client is a best-effort geocoding client. Failures degrade to nil: a
// listing without coordinates just skips the geo match signal. Results are
// cached for the client's lifetime so one run never asks twice for the same
// location string.
type Client struct {
	http      *http.Client
	logger    ectologger.Logger
	baseURL   string
	userAgent string
	limiter   *throttle.Limiter

	mu    sync.Mutex
	cache map[string]*Point
}

// Config holds geocoder client configuration
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// NewClient creates a new geocoding client
func NewClient(logger ectologger.Logger, limiter *throttle.Limiter, cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		http:      &http.Client{Timeout: timeout},
		logger:    logger,
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		limiter:   limiter,
		cache:     make(map[string]*Point),
	}
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode resolves a location string. A nil result with a nil error means
// the location could not be resolved; callers treat that as "no new
// information", never as a failure.
func (c *Client) Geocode(ctx context.Context, location string) (*Point, error) {
	ctx, span := tracing.StartSpan(ctx, "geocode.Client.Geocode")
	defer span.End()

	if location == "" || c.baseURL == "" {
		return nil, nil
	}

	c.mu.Lock()
	if cached, ok := c.cache[location]; ok {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	point := c.lookup(ctx, location)

	// Failures are cached too; retrying the same bad location within a run
	// only burns the rate budget.
	c.mu.Lock()
	c.cache[location] = point
	c.mu.Unlock()

	return point, nil
}

func (c *Client) lookup(ctx context.Context, location string) *Point {
	log := c.logger.WithContext(ctx).WithFields(map[string]any{"location": location})

	reqURL := fmt.Sprintf("%s/search?q=%s&format=json&limit=1", c.baseURL, url.QueryEscape(location))

	parsed, err := url.Parse(reqURL)
	if err != nil {
		log.WithError(err).Warn("Invalid geocoder URL")
		return nil
	}

	if err := c.limiter.Wait(ctx, parsed.Hostname()); err != nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		log.WithError(err).Warn("Failed to build geocoder request")
		return nil
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		log.WithError(err).Warn("Geocoder request failed")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.WithFields(map[string]any{"status": resp.StatusCode}).Warn("Geocoder returned non-OK status")
		return nil
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		log.WithError(err).Warn("Failed to decode geocoder response")
		return nil
	}
	if len(results) == 0 {
		return nil
	}

	lat, latErr := strconv.ParseFloat(results[0].Lat, 64)
	lon, lonErr := strconv.ParseFloat(results[0].Lon, 64)
	if latErr != nil || lonErr != nil {
		log.Warn("Geocoder returned unparseable coordinates")
		return nil
	}

	return &Point{Latitude: lat, Longitude: lon}
}
