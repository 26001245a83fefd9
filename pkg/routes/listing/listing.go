// Package listing exposes the read API for canonical listings and run results
package listing

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/bramble/pkg/admission"
	"github.com/Ramsey-B/bramble/pkg/models"
	"github.com/Ramsey-B/bramble/pkg/pipeline"
)

// CanonicalStore reads the deduplicated listing set.
type CanonicalStore interface {
	List(ctx context.Context) ([]models.Listing, error)
	Get(ctx context.Context, id string) (*models.Listing, error)
	Members(ctx context.Context, canonicalID string) ([]models.ClusterMember, error)
}

// EvaluationStore reads evaluation scores.
type EvaluationStore interface {
	Map(ctx context.Context) (map[string]models.Evaluation, error)
	Get(ctx context.Context, listingID string) (*models.Evaluation, error)
}

// DecisionStore reads the admission audit trail.
type DecisionStore interface {
	ListByRun(ctx context.Context, runID string) ([]models.AdmissionDecision, error)
	LatestRunID(ctx context.Context) (string, error)
}

// Runner triggers pipeline runs.
type Runner interface {
	RunOnce(ctx context.Context) (*pipeline.Result, error)
}

// Handler serves the listing API. The display set is computed at read time by
// passing the stored canonical set through the quality filter, so threshold
// changes take effect without a new pipeline run.
type Handler struct {
	logger      ectologger.Logger
	canonical   CanonicalStore
	evaluations EvaluationStore
	decisions   DecisionStore
	quality     *admission.QualityFilter
	runner      Runner
}

// NewHandler creates a new listing API handler
func NewHandler(
	logger ectologger.Logger,
	canonical CanonicalStore,
	evaluations EvaluationStore,
	decisions DecisionStore,
	quality *admission.QualityFilter,
	runner Runner,
) *Handler {
	return &Handler{
		logger:      logger,
		canonical:   canonical,
		evaluations: evaluations,
		decisions:   decisions,
		quality:     quality,
		runner:      runner,
	}
}

// RegisterRoutes registers listing API endpoints
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.GET("/listings", h.ListDisplay)
	g.GET("/listings/all", h.ListCanonical)
	g.GET("/listings/:id", h.GetListing)
	g.POST("/runs", h.TriggerRun)
	g.GET("/runs/latest/decisions", h.ListLatestDecisions)
}

// ListDisplay returns the canonical listings that pass the quality gate.
func (h *Handler) ListDisplay(c echo.Context) error {
	ctx := c.Request().Context()

	listings, err := h.canonical.List(ctx)
	if err != nil {
		return err
	}
	evaluations, err := h.evaluations.Map(ctx)
	if err != nil {
		return err
	}

	display, _ := h.quality.Apply(ctx, listings, evaluations)
	return c.JSON(http.StatusOK, display)
}

// ListCanonical returns the full canonical set, hidden listings included.
func (h *Handler) ListCanonical(c echo.Context) error {
	ctx := c.Request().Context()

	listings, err := h.canonical.List(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listings)
}

// ListingDetail is the single-listing response, with cluster membership and
// the evaluation when one exists.
type ListingDetail struct {
	Listing    models.Listing         `json:"listing"`
	Members    []models.ClusterMember `json:"members,omitempty"`
	Evaluation *models.Evaluation     `json:"evaluation,omitempty"`
}

// GetListing returns one canonical listing with its cluster members.
func (h *Handler) GetListing(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	l, err := h.canonical.Get(ctx, id)
	if err != nil {
		return err
	}

	members, err := h.canonical.Members(ctx, id)
	if err != nil {
		return err
	}

	detail := ListingDetail{Listing: *l, Members: members}
	if evaluation, err := h.evaluations.Get(ctx, id); err == nil {
		detail.Evaluation = evaluation
	}

	return c.JSON(http.StatusOK, detail)
}

// RunSummary is the response for a triggered pipeline run.
type RunSummary struct {
	RunID     string `json:"run_id"`
	Input     int    `json:"input"`
	Canonical int    `json:"canonical"`
	Admitted  int    `json:"admitted"`
	Display   int    `json:"display"`
	Merges    int    `json:"merges"`
}

// TriggerRun executes a pipeline run synchronously and returns its summary.
func (h *Handler) TriggerRun(c echo.Context) error {
	ctx := c.Request().Context()

	result, err := h.runner.RunOnce(ctx)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Triggered pipeline run failed")
		return httperror.NewHTTPError(http.StatusInternalServerError, "pipeline run failed")
	}

	return c.JSON(http.StatusOK, RunSummary{
		RunID:     result.RunID,
		Input:     result.InputCount,
		Canonical: len(result.Canonical),
		Admitted:  len(result.Admitted),
		Display:   len(result.Display),
		Merges:    len(result.Reports),
	})
}

// ListLatestDecisions returns the audit trail of the most recent run.
func (h *Handler) ListLatestDecisions(c echo.Context) error {
	ctx := c.Request().Context()

	runID, err := h.decisions.LatestRunID(ctx)
	if err != nil {
		return err
	}
	if runID == "" {
		return c.JSON(http.StatusOK, []models.AdmissionDecision{})
	}

	decisions, err := h.decisions.ListByRun(ctx, runID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"run_id":    runID,
		"decisions": decisions,
	})
}
