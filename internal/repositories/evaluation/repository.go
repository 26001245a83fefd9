// Package evaluation persists scores from the external evaluation service
package evaluation

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/bramble/pkg/database"
	"github.com/Ramsey-B/bramble/pkg/models"
	"github.com/Ramsey-B/bramble/pkg/tracing"
)

// Repository handles evaluation persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new evaluation repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const selectColumns = "listing_id, overall_score, match_summary, highlights, concerns, date_evaluated, created_at, updated_at"

type row struct {
	ListingID     string                   `db:"listing_id"`
	OverallScore  int                      `db:"overall_score"`
	MatchSummary  string                   `db:"match_summary"`
	Highlights    database.JSONB[[]string] `db:"highlights"`
	Concerns      database.JSONB[[]string] `db:"concerns"`
	DateEvaluated time.Time                `db:"date_evaluated"`
	CreatedAt     time.Time                `db:"created_at"`
	UpdatedAt     time.Time                `db:"updated_at"`
}

func (r row) toModel() models.Evaluation {
	return models.Evaluation{
		ListingID:     r.ListingID,
		OverallScore:  r.OverallScore,
		MatchSummary:  r.MatchSummary,
		Highlights:    r.Highlights.GetValue(),
		Concerns:      r.Concerns.GetValue(),
		DateEvaluated: r.DateEvaluated,
	}
}

// Upsert stores an evaluation, replacing any previous score for the listing.
// Re-evaluation overwrites: the latest score is the only one that matters to
// the quality gate.
func (r *Repository) Upsert(ctx context.Context, e *models.Evaluation) error {
	ctx, span := tracing.StartSpan(ctx, "evaluation.Repository.Upsert")
	defer span.End()

	now := time.Now().UTC()
	query := `
		INSERT INTO evaluations (listing_id, overall_score, match_summary, highlights, concerns, date_evaluated, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (listing_id)
		DO UPDATE SET
			overall_score = EXCLUDED.overall_score,
			match_summary = EXCLUDED.match_summary,
			highlights = EXCLUDED.highlights,
			concerns = EXCLUDED.concerns,
			date_evaluated = EXCLUDED.date_evaluated,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		e.ListingID, e.OverallScore, e.MatchSummary,
		database.JSONB[[]string]{Data: e.Highlights},
		database.JSONB[[]string]{Data: e.Concerns},
		e.DateEvaluated, now,
	)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"listing_id": e.ListingID,
		}).Error("Failed to upsert evaluation")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert evaluation")
	}
	return nil
}

// Map returns all evaluations keyed by listing ID. The quality gate takes the
// whole map so unevaluated listings are recognizable by absence.
func (r *Repository) Map(ctx context.Context) (map[string]models.Evaluation, error) {
	ctx, span := tracing.StartSpan(ctx, "evaluation.Repository.Map")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(selectColumns)
	sb.From("evaluations")

	query, args := sb.Build()
	var rows []row
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to load evaluations")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load evaluations")
	}

	evaluations := make(map[string]models.Evaluation, len(rows))
	for _, row := range rows {
		evaluations[row.ListingID] = row.toModel()
	}
	return evaluations, nil
}

// Get retrieves the evaluation for a listing
func (r *Repository) Get(ctx context.Context, listingID string) (*models.Evaluation, error) {
	ctx, span := tracing.StartSpan(ctx, "evaluation.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(selectColumns)
	sb.From("evaluations")
	sb.Where(sb.Equal("listing_id", listingID))

	query, args := sb.Build()
	var result row
	if err := r.db.GetContext(ctx, &result, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "evaluation for listing %s not found", listingID)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"listing_id": listingID}).Error("Failed to get evaluation")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get evaluation")
	}

	evaluation := result.toModel()
	return &evaluation, nil
}

// List returns all evaluations, best scores first.
func (r *Repository) List(ctx context.Context) ([]models.Evaluation, error) {
	ctx, span := tracing.StartSpan(ctx, "evaluation.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(selectColumns)
	sb.From("evaluations")
	sb.OrderBy("overall_score DESC", "listing_id ASC")

	query, args := sb.Build()
	var rows []row
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list evaluations")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list evaluations")
	}

	evaluations := make([]models.Evaluation, 0, len(rows))
	for _, row := range rows {
		evaluations = append(evaluations, row.toModel())
	}
	return evaluations, nil
}
