package processor

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/bramble/internal/repositories/listing"
	"github.com/Ramsey-B/bramble/pkg/geocode"
	"github.com/Ramsey-B/bramble/pkg/kafka"
	"github.com/Ramsey-B/bramble/pkg/models"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

type fakeStore struct {
	upserts []models.Listing
	result  *listing.UpsertResult
	err     error
}

func (f *fakeStore) Upsert(_ context.Context, l *models.Listing) (*listing.UpsertResult, error) {
	f.upserts = append(f.upserts, *l)
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &listing.UpsertResult{Listing: l, IsNew: true, IsChanged: true}, nil
}

type fakeEmitter struct {
	ingested []string
	isNew    []bool
}

func (f *fakeEmitter) EmitListingIngested(_ context.Context, l *models.Listing, isNew bool) error {
	f.ingested = append(f.ingested, l.ID)
	f.isNew = append(f.isNew, isNew)
	return nil
}

type fakeGeocoder struct {
	queries []string
	point   *geocode.Point
}

func (f *fakeGeocoder) Geocode(_ context.Context, location string) (*geocode.Point, error) {
	f.queries = append(f.queries, location)
	return f.point, nil
}

func scrapedMessage(t *testing.T, scraped models.ScrapedListing) *kafka.IncomingMessage {
	t.Helper()
	value, err := json.Marshal(scraped)
	require.NoError(t, err)
	return &kafka.IncomingMessage{
		Value:     value,
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Topic:     "scraped-listings",
	}
}

func TestProcessMessage_StagesListing(t *testing.T) {
	store := &fakeStore{}
	emitter := &fakeEmitter{}
	p := NewProcessor(testLogger(), store, emitter, nil)

	msg := scrapedMessage(t, models.ScrapedListing{
		Source:      "airbnb",
		SourceURL:   "https://airbnb.com/rooms/42",
		Title:       "Mountain cabin",
		Description: "A quiet cabin in the hills",
	})

	err := p.ProcessMessage(context.Background(), msg)
	require.NoError(t, err)

	require.Len(t, store.upserts, 1)
	staged := store.upserts[0]
	assert.Equal(t, models.ListingID("https://airbnb.com/rooms/42"), staged.ID)
	assert.Equal(t, "airbnb", staged.Source)
	assert.Equal(t, msg.Timestamp, staged.DateScraped)

	require.Len(t, emitter.ingested, 1)
	assert.Equal(t, staged.ID, emitter.ingested[0])
	assert.True(t, emitter.isNew[0])
}

func TestProcessMessage_SkipsInvalidPayload(t *testing.T) {
	store := &fakeStore{}
	p := NewProcessor(testLogger(), store, nil, nil)

	msg := scrapedMessage(t, models.ScrapedListing{
		Title: "No identity fields",
	})

	// Invalid payloads are skipped without error so the message is committed
	// instead of redelivered forever.
	err := p.ProcessMessage(context.Background(), msg)
	require.NoError(t, err)
	assert.Empty(t, store.upserts)
}

func TestProcessMessage_MalformedJSON(t *testing.T) {
	store := &fakeStore{}
	p := NewProcessor(testLogger(), store, nil, nil)

	msg := &kafka.IncomingMessage{Value: []byte("{not json")}
	err := p.ProcessMessage(context.Background(), msg)
	require.Error(t, err)
	assert.Empty(t, store.upserts)
}

func TestProcessMessage_GeocodesMissingCoordinates(t *testing.T) {
	store := &fakeStore{}
	geocoder := &fakeGeocoder{point: &geocode.Point{Latitude: 45.5, Longitude: -73.6}}
	p := NewProcessor(testLogger(), store, nil, geocoder)

	location := "Montreal"
	province := "QC"
	msg := scrapedMessage(t, models.ScrapedListing{
		Source:    "kijiji",
		SourceURL: "https://kijiji.ca/v/123",
		Location:  &location,
		Province:  &province,
	})

	err := p.ProcessMessage(context.Background(), msg)
	require.NoError(t, err)

	require.Equal(t, []string{"Montreal, QC"}, geocoder.queries)
	require.Len(t, store.upserts, 1)
	staged := store.upserts[0]
	require.NotNil(t, staged.Latitude)
	assert.Equal(t, 45.5, *staged.Latitude)
	require.NotNil(t, staged.Longitude)
	assert.Equal(t, -73.6, *staged.Longitude)
}

func TestProcessMessage_KeepsScrapedCoordinates(t *testing.T) {
	store := &fakeStore{}
	geocoder := &fakeGeocoder{point: &geocode.Point{Latitude: 1, Longitude: 1}}
	p := NewProcessor(testLogger(), store, nil, geocoder)

	lat, lon := 48.85, 2.35
	location := "Paris"
	msg := scrapedMessage(t, models.ScrapedListing{
		Source:    "leboncoin",
		SourceURL: "https://leboncoin.fr/ad/9",
		Location:  &location,
		Latitude:  &lat,
		Longitude: &lon,
	})

	err := p.ProcessMessage(context.Background(), msg)
	require.NoError(t, err)

	assert.Empty(t, geocoder.queries)
	require.Len(t, store.upserts, 1)
	assert.Equal(t, 48.85, *store.upserts[0].Latitude)
}

func TestProcessMessage_NoEventWhenUnchanged(t *testing.T) {
	l := models.Listing{ID: "abc123"}
	store := &fakeStore{result: &listing.UpsertResult{Listing: &l, IsNew: false, IsChanged: false}}
	emitter := &fakeEmitter{}
	p := NewProcessor(testLogger(), store, emitter, nil)

	msg := scrapedMessage(t, models.ScrapedListing{
		Source:    "airbnb",
		SourceURL: "https://airbnb.com/rooms/42",
	})

	err := p.ProcessMessage(context.Background(), msg)
	require.NoError(t, err)
	assert.Empty(t, emitter.ingested)
}
