package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/bramble/pkg/models"
	"github.com/Ramsey-B/bramble/pkg/tracing"
)

// ListingStore supplies the snapshot a run operates on.
type ListingStore interface {
	List(ctx context.Context) ([]models.Listing, error)
}

// EvaluationStore supplies evaluation scores keyed by listing ID.
type EvaluationStore interface {
	Map(ctx context.Context) (map[string]models.Evaluation, error)
}

// CanonicalStore persists a run's canonical output.
type CanonicalStore interface {
	ReplaceRun(ctx context.Context, runID string, canonical []models.Listing, reports []models.MergeReport) error
}

// DecisionStore persists a run's admission decisions.
type DecisionStore interface {
	InsertRun(ctx context.Context, runID string, decisions []models.AdmissionDecision) error
}

// Emitter publishes run outcomes for downstream consumers.
type Emitter interface {
	EmitListingMerged(ctx context.Context, runID string, report models.MergeReport) error
	EmitDecision(ctx context.Context, runID string, decision models.AdmissionDecision) error
	EmitRunCompleted(ctx context.Context, result *Result) error
}

// Scorer requests evaluation scores for listings that have none. Scores land
// before the next run, so a freshly admitted listing is displayed until its
// evaluation says otherwise.
type Scorer interface {
	ScoreMissing(ctx context.Context, listings []models.Listing) (int, error)
}

// Service wires the pure pipeline to storage and events. It snapshots the
// staged store, runs the pipeline, persists the canonical set and the
// decision audit trail, then emits events. The staged store itself is never
// written: gating stays reversible.
type Service struct {
	logger      ectologger.Logger
	pipeline    *Pipeline
	listings    ListingStore
	evaluations EvaluationStore
	canonical   CanonicalStore
	decisions   DecisionStore
	emitter     Emitter
	scorer      Scorer
}

// NewService creates a new pipeline service
func NewService(
	logger ectologger.Logger,
	pipeline *Pipeline,
	listings ListingStore,
	evaluations EvaluationStore,
	canonical CanonicalStore,
	decisions DecisionStore,
	emitter Emitter,
) *Service {
	return &Service{
		logger:      logger,
		pipeline:    pipeline,
		listings:    listings,
		evaluations: evaluations,
		canonical:   canonical,
		decisions:   decisions,
		emitter:     emitter,
	}
}

// SetScorer attaches an optional evaluation scorer that runs after each
// persisted run.
func (s *Service) SetScorer(scorer Scorer) {
	s.scorer = scorer
}

// RunOnce executes a full pipeline run against the current snapshot.
func (s *Service) RunOnce(ctx context.Context) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.Service.RunOnce")
	defer span.End()

	runID := uuid.New().String()
	log := s.logger.WithContext(ctx).WithFields(map[string]any{"run_id": runID})

	listings, err := s.listings.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot listings: %w", err)
	}

	evaluations, err := s.evaluations.Map(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load evaluations: %w", err)
	}

	result := s.pipeline.Run(ctx, runID, listings, evaluations, time.Now().UTC())

	if err := s.canonical.ReplaceRun(ctx, runID, result.Canonical, result.Reports); err != nil {
		return nil, fmt.Errorf("failed to persist canonical set: %w", err)
	}
	if err := s.decisions.InsertRun(ctx, runID, result.Decisions); err != nil {
		return nil, fmt.Errorf("failed to persist admission decisions: %w", err)
	}

	s.emit(ctx, result)

	if s.scorer != nil {
		if scored, err := s.scorer.ScoreMissing(ctx, result.Admitted); err != nil {
			log.WithError(err).Warn("Failed to score admitted listings")
		} else if scored > 0 {
			log.WithFields(map[string]any{"scored": scored}).Info("Requested evaluations for new listings")
		}
	}

	log.WithFields(map[string]any{
		"input":   result.InputCount,
		"display": len(result.Display),
	}).Info("Pipeline run persisted")

	return result, nil
}

// emit publishes run events. Event delivery is best effort: a broker outage
// must not fail a run that has already been persisted.
func (s *Service) emit(ctx context.Context, result *Result) {
	if s.emitter == nil {
		return
	}

	for _, report := range result.Reports {
		if err := s.emitter.EmitListingMerged(ctx, result.RunID, report); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("Failed to emit merge event")
		}
	}
	// Pre-filter decisions are emitted both ways (admitted and rejected);
	// quality decisions only when a listing is hidden. A kept quality
	// decision is the steady state, not an event.
	for _, decision := range result.Decisions {
		if decision.Kept && decision.Stage != models.StagePreFilter {
			continue
		}
		if err := s.emitter.EmitDecision(ctx, result.RunID, decision); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("Failed to emit decision event")
		}
	}
	if err := s.emitter.EmitRunCompleted(ctx, result); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Failed to emit run completion event")
	}
}

// RunPeriodically runs the pipeline on a fixed interval until the context is
// cancelled. Failures are logged and the next tick retries.
func (s *Service) RunPeriodically(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"interval": interval.String(),
	}).Info("Pipeline daemon started")

	for {
		select {
		case <-ctx.Done():
			s.logger.WithContext(ctx).Info("Pipeline daemon stopping")
			return
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.WithContext(ctx).WithError(err).Error("Scheduled pipeline run failed")
			}
		}
	}
}
