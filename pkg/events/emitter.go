// Package events handles event emission for listing lifecycle changes
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/bramble/pkg/kafka"
	"github.com/Ramsey-B/bramble/pkg/models"
	"github.com/Ramsey-B/bramble/pkg/pipeline"
	"github.com/Ramsey-B/bramble/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Emitter publishes listing and run events to the output topic
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitListingIngested emits an event when a staged listing is created or its
// content changes.
func (e *Emitter) EmitListingIngested(ctx context.Context, listing *models.Listing, isNew bool) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitListingIngested")
	defer span.End()

	eventType := "listing.updated"
	if isNew {
		eventType = "listing.ingested"
	}

	data, _ := json.Marshal(map[string]any{
		"schema_version": SchemaVersion,
		"source_url":     listing.SourceURL,
	})

	event := &kafka.ListingEvent{
		EventType: eventType,
		ListingID: listing.ID,
		Source:    listing.Source,
		Data:      data,
	}

	if err := e.producer.PublishListingEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit listing ingestion event")
		return err
	}

	return nil
}

// EmitListingMerged emits an event describing one merged duplicate cluster.
func (e *Emitter) EmitListingMerged(ctx context.Context, runID string, report models.MergeReport) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitListingMerged")
	defer span.End()

	data, _ := json.Marshal(map[string]any{
		"schema_version": SchemaVersion,
		"member_ids":     report.MemberIDs,
		"sources":        report.Sources,
	})

	event := &kafka.ListingEvent{
		EventType: "listing.merged",
		RunID:     runID,
		ListingID: report.CanonicalID,
		Data:      data,
	}

	if err := e.producer.PublishListingEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit listing.merged event")
		return err
	}

	return nil
}

// EmitDecision emits a gate decision event, carrying the stable reason
// string so downstream consumers can aggregate admissions and rejections.
func (e *Emitter) EmitDecision(ctx context.Context, runID string, decision models.AdmissionDecision) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitDecision")
	defer span.End()

	eventType := "listing.rejected"
	if decision.Kept {
		eventType = "listing.admitted"
	}

	data, _ := json.Marshal(map[string]any{
		"schema_version": SchemaVersion,
		"stage":          decision.Stage,
		"kept":           decision.Kept,
		"reason":         decision.Reason,
		"title":          decision.Title,
	})

	event := &kafka.ListingEvent{
		EventType: eventType,
		RunID:     runID,
		ListingID: decision.ListingID,
		Data:      data,
	}

	if err := e.producer.PublishListingEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit decision event")
		return err
	}

	return nil
}

// EmitRunCompleted emits a summary event at the end of a pipeline run.
func (e *Emitter) EmitRunCompleted(ctx context.Context, result *pipeline.Result) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRunCompleted")
	defer span.End()

	data, _ := json.Marshal(map[string]any{
		"schema_version": SchemaVersion,
		"reference_time": result.ReferenceTime,
		"input_count":    result.InputCount,
		"canonical":      len(result.Canonical),
		"admitted":       len(result.Admitted),
		"display":        len(result.Display),
		"merges":         len(result.Reports),
	})

	event := &kafka.ListingEvent{
		EventType: "run.completed",
		RunID:     result.RunID,
		Data:      data,
	}

	if err := e.producer.PublishListingEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit run.completed event")
		return err
	}

	return nil
}
