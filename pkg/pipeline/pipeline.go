// Package pipeline runs the batch deduplication and admission passes
package pipeline

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/bramble/pkg/admission"
	"github.com/Ramsey-B/bramble/pkg/matching"
	"github.com/Ramsey-B/bramble/pkg/merging"
	"github.com/Ramsey-B/bramble/pkg/models"
	"github.com/Ramsey-B/bramble/pkg/tracing"
)

// Pipeline is the deterministic batch core: snapshot in, display set out.
// It holds no storage and performs no I/O; two runs over the same snapshot,
// evaluations, and reference time produce identical results.
type Pipeline struct {
	logger    ectologger.Logger
	matcher   *matching.Engine
	merger    *merging.Engine
	prefilter *admission.PreFilter
	quality   *admission.QualityFilter
}

// NewPipeline creates a new pipeline over the given stages
func NewPipeline(
	logger ectologger.Logger,
	matcher *matching.Engine,
	merger *merging.Engine,
	prefilter *admission.PreFilter,
	quality *admission.QualityFilter,
) *Pipeline {
	return &Pipeline{
		logger:    logger,
		matcher:   matcher,
		merger:    merger,
		prefilter: prefilter,
		quality:   quality,
	}
}

// Result is the full output of one pipeline run.
type Result struct {
	RunID         string                     `json:"run_id"`
	ReferenceTime time.Time                  `json:"reference_time"`
	InputCount    int                        `json:"input_count"`
	Canonical     []models.Listing           `json:"canonical"`
	Admitted      []models.Listing           `json:"admitted"`
	Display       []models.Listing           `json:"display"`
	Decisions     []models.AdmissionDecision `json:"decisions"`
	Reports       []models.MergeReport       `json:"reports"`
}

// Run executes one pass: match, cluster, merge, pre-filter, quality gate.
// The evaluations map may cover any subset of listings; unevaluated listings
// flow through the quality gate untouched.
func (p *Pipeline) Run(ctx context.Context, runID string, listings []models.Listing, evaluations map[string]models.Evaluation, now time.Time) *Result {
	ctx, span := tracing.StartSpan(ctx, "pipeline.Pipeline.Run")
	defer span.End()

	log := p.logger.WithContext(ctx).WithFields(map[string]any{
		"run_id": runID,
		"input":  len(listings),
	})
	log.Info("Starting pipeline run")

	clusterIdx, _ := p.matcher.Resolve(ctx, listings)
	clusters := make([][]models.Listing, 0, len(clusterIdx))
	for _, idxs := range clusterIdx {
		members := make([]models.Listing, 0, len(idxs))
		for _, i := range idxs {
			members = append(members, listings[i])
		}
		clusters = append(clusters, members)
	}

	canonical, reports := p.merger.MergeAll(ctx, clusters)

	admitted, preDecisions := p.prefilter.Apply(ctx, canonical, now)
	display, qualityDecisions := p.quality.Apply(ctx, admitted, evaluations)

	decisions := make([]models.AdmissionDecision, 0, len(preDecisions)+len(qualityDecisions))
	decisions = append(decisions, preDecisions...)
	decisions = append(decisions, qualityDecisions...)

	log.WithFields(map[string]any{
		"canonical": len(canonical),
		"admitted":  len(admitted),
		"display":   len(display),
		"merges":    len(reports),
	}).Info("Pipeline run completed")

	return &Result{
		RunID:         runID,
		ReferenceTime: now,
		InputCount:    len(listings),
		Canonical:     canonical,
		Admitted:      admitted,
		Display:       display,
		Decisions:     decisions,
		Reports:       reports,
	}
}
