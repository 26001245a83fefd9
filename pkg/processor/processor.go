// Package processor handles incoming scraped listing messages. This is the
// ingestion layer: it writes to the staged listing store only. Deduplication
// and gating happen later, in pipeline runs over the whole staged set.
package processor

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"

	"github.com/Ramsey-B/bramble/internal/repositories/listing"
	"github.com/Ramsey-B/bramble/pkg/geocode"
	"github.com/Ramsey-B/bramble/pkg/kafka"
	"github.com/Ramsey-B/bramble/pkg/models"
	"github.com/Ramsey-B/bramble/pkg/tracing"
)

// ListingStore persists staged listings.
type ListingStore interface {
	Upsert(ctx context.Context, l *models.Listing) (*listing.UpsertResult, error)
}

// IngestEmitter publishes ingestion lifecycle events.
type IngestEmitter interface {
	EmitListingIngested(ctx context.Context, listing *models.Listing, isNew bool) error
}

// Geocoder resolves a free-text location to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, location string) (*geocode.Point, error)
}

// Processor handles message processing for the ingestion layer
type Processor struct {
	logger   ectologger.Logger
	store    ListingStore
	emitter  IngestEmitter
	geocoder Geocoder
	validate *validator.Validate
}

// NewProcessor creates a new message processor for ingestion. The emitter and
// geocoder are optional; a nil geocoder just leaves listings without
// coordinates out of the geo matching signal.
func NewProcessor(logger ectologger.Logger, store ListingStore, emitter IngestEmitter, geocoder Geocoder) *Processor {
	return &Processor{
		logger:   logger,
		store:    store,
		emitter:  emitter,
		geocoder: geocoder,
		validate: validator.New(),
	}
}

// ProcessMessage handles an incoming Kafka message
func (p *Processor) ProcessMessage(ctx context.Context, msg *kafka.IncomingMessage) error {
	ctx, span := tracing.StartSpan(ctx, "processor.ProcessMessage")
	defer span.End()

	log := p.logger.WithContext(ctx).WithFields(map[string]any{
		"key":    msg.Key,
		"topic":  msg.Topic,
		"offset": msg.Offset,
	})

	if msg.Scraped == nil {
		if err := msg.ParseScrapedListing(); err != nil {
			log.WithError(err).Error("Failed to parse scraped listing")
			return err
		}
	}

	scraped := msg.Scraped
	if err := p.validate.Struct(scraped); err != nil {
		// Skip, don't retry: a payload without identity fields can never
		// produce a listing ID.
		log.WithError(err).WithFields(map[string]any{
			"source": msg.GetSource(),
		}).Warn("Skipping scraped listing with invalid payload")
		return nil
	}

	l := scraped.ToListing(msg.Timestamp)

	log = log.WithFields(map[string]any{
		"listing_id": l.ID,
		"source":     l.Source,
	})

	p.enrichCoordinates(ctx, &l, log)

	result, err := p.store.Upsert(ctx, &l)
	if err != nil {
		log.WithError(err).Error("Failed to stage listing")
		return err
	}

	log.WithFields(map[string]any{
		"is_new":     result.IsNew,
		"is_changed": result.IsChanged,
	}).Info("Listing staged")

	if p.emitter != nil && result.IsChanged {
		if err := p.emitter.EmitListingIngested(ctx, result.Listing, result.IsNew); err != nil {
			// Staging already succeeded, so a broker hiccup must not trigger
			// a redelivery loop.
			log.WithError(err).Warn("Failed to emit ingestion event")
		}
	}

	return nil
}

// enrichCoordinates fills in missing coordinates from the listing's free-text
// location. Lookup failures are tolerated: the listing simply won't carry a
// geo signal.
func (p *Processor) enrichCoordinates(ctx context.Context, l *models.Listing, log ectologger.Logger) {
	if p.geocoder == nil || l.HasCoordinates() {
		return
	}

	query := geocodeQuery(l)
	if query == "" {
		return
	}

	point, err := p.geocoder.Geocode(ctx, query)
	if err != nil {
		log.WithError(err).WithFields(map[string]any{"query": query}).Warn("Geocode lookup failed")
		return
	}
	if point == nil {
		return
	}

	l.Latitude = &point.Latitude
	l.Longitude = &point.Longitude
	log.WithFields(map[string]any{"query": query}).Debug("Geocoded listing location")
}

func geocodeQuery(l *models.Listing) string {
	var parts []string
	for _, p := range []*string{l.Location, l.Province, l.Country} {
		if p != nil && *p != "" {
			parts = append(parts, *p)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	query := parts[0]
	for _, p := range parts[1:] {
		query += ", " + p
	}
	return query
}
