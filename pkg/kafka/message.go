package kafka

import (
	"encoding/json"
	"time"

	"github.com/Ramsey-B/bramble/pkg/models"
)

// IncomingMessage wraps a raw Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string

	// Trace context (extracted from Kafka headers)
	TraceParent string
	TraceState  string

	// Parsed content
	Scraped *models.ScrapedListing
}

// ParseScrapedListing parses the message value as a scraped listing payload.
func (m *IncomingMessage) ParseScrapedListing() error {
	var scraped models.ScrapedListing
	if err := json.Unmarshal(m.Value, &scraped); err != nil {
		return err
	}
	m.Scraped = &scraped
	return nil
}

// GetSource returns the scraper source for this message, falling back to the
// header when the payload omits it.
func (m *IncomingMessage) GetSource() string {
	if m.Scraped != nil && m.Scraped.Source != "" {
		return m.Scraped.Source
	}
	return m.Headers["source"]
}

// GetScrapeRunID returns the scraper's run correlation ID, if it sent one.
func (m *IncomingMessage) GetScrapeRunID() string {
	return m.Headers["scrape_run_id"]
}
