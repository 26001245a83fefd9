// Package decision persists the per-run admission audit trail
package decision

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

// Repository stores admission decisions. Decisions are append-only: every run
// writes its full set, so gate behavior over time stays auditable even though
// the canonical set only keeps the latest run.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new decision repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const batchSize = 500

type row struct {
	RunID     string    `db:"run_id"`
	ListingID string    `db:"listing_id"`
	Title     string    `db:"title"`
	Stage     string    `db:"stage"`
	Kept      bool      `db:"kept"`
	Reason    string    `db:"reason"`
	CreatedAt time.Time `db:"created_at"`
}

func (r row) toModel() models.AdmissionDecision {
	return models.AdmissionDecision{
		ListingID: r.ListingID,
		Title:     r.Title,
		Stage:     r.Stage,
		Kept:      r.Kept,
		Reason:    r.Reason,
	}
}

// InsertRun writes all decisions for a run in one transaction.
func (r *Repository) InsertRun(ctx context.Context, runID string, decisions []models.AdmissionDecision) error {
	ctx, span := tracing.StartSpan(ctx, "decision.Repository.InsertRun")
	defer span.End()

	if len(decisions) == 0 {
		return nil
	}

	log := r.logger.WithContext(ctx).WithFields(map[string]any{"run_id": runID})
	now := time.Now().UTC()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	for i := 0; i < len(decisions); i += batchSize {
		end := i + batchSize
		if end > len(decisions) {
			end = len(decisions)
		}

		sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
		sb.InsertInto("admission_decisions")
		sb.Cols("run_id", "listing_id", "title", "stage", "kept", "reason", "created_at")
		for _, d := range decisions[i:end] {
			sb.Values(runID, d.ListingID, d.Title, d.Stage, d.Kept, d.Reason, now)
		}
		query, args := sb.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			log.WithError(err).Error("Failed to insert admission decisions")
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert admission decisions")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit")
	}

	log.WithFields(map[string]any{"decisions": len(decisions)}).Info("Recorded admission decisions")
	return nil
}

// ListByRun returns all decisions for a run, rejections first so the
// interesting rows lead.
func (r *Repository) ListByRun(ctx context.Context, runID string) ([]models.AdmissionDecision, error) {
	ctx, span := tracing.StartSpan(ctx, "decision.Repository.ListByRun")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("run_id", "listing_id", "title", "stage", "kept", "reason", "created_at")
	sb.From("admission_decisions")
	sb.Where(sb.Equal("run_id", runID))
	sb.OrderBy("kept ASC", "stage ASC", "listing_id ASC")

	query, args := sb.Build()
	var rows []row
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"run_id": runID}).Error("Failed to list admission decisions")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list admission decisions")
	}

	decisions := make([]models.AdmissionDecision, 0, len(rows))
	for _, row := range rows {
		decisions = append(decisions, row.toModel())
	}
	return decisions, nil
}

// LatestRunID returns the most recent run with recorded decisions, or ""
// when no run has completed yet.
func (r *Repository) LatestRunID(ctx context.Context) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "decision.Repository.LatestRunID")
	defer span.End()

	var runID string
	query := "SELECT run_id FROM admission_decisions ORDER BY created_at DESC LIMIT 1"
	if err := r.db.GetContext(ctx, &runID, query); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return "", nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get latest decision run")
		return "", httperror.NewHTTPError(http.StatusInternalServerError, "failed to get latest run")
	}
	return runID, nil
}
