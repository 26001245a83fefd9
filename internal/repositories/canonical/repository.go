// Package canonical persists the deduplicated output of a pipeline run
package canonical

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

// Repository stores canonical listings and their cluster membership. Only the
// most recent run is kept: each run replaces the previous canonical set, so
// readers always see one consistent snapshot.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new canonical repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const batchSize = 500

type listingRow struct {
	RunID     string                         `db:"run_id"`
	ID        string                         `db:"id"`
	Data      database.JSONB[models.Listing] `db:"data"`
	CreatedAt time.Time                      `db:"created_at"`
}

type memberRow struct {
	RunID       string `db:"run_id"`
	CanonicalID string `db:"canonical_id"`
	MemberID    string `db:"member_id"`
	Source      string `db:"source"`
}

// ReplaceRun swaps the canonical set for the given run's output in a single
// transaction. Previous runs are dropped; the decision audit trail keeps the
// per-run history.
func (r *Repository) ReplaceRun(ctx context.Context, runID string, canonical []models.Listing, reports []models.MergeReport) error {
	ctx, span := tracing.StartSpan(ctx, "canonical.Repository.ReplaceRun")
	defer span.End()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{"run_id": runID})
	now := time.Now().UTC()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	for _, table := range []string{"canonical_members", "canonical_listings"} {
		db := sqlbuilder.PostgreSQL.NewDeleteBuilder()
		db.DeleteFrom(table)
		query, args := db.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			log.WithError(err).Error("Failed to clear previous canonical set")
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to clear canonical set")
		}
	}

	for i := 0; i < len(canonical); i += batchSize {
		end := i + batchSize
		if end > len(canonical) {
			end = len(canonical)
		}

		sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
		sb.InsertInto("canonical_listings")
		sb.Cols("run_id", "id", "data", "created_at")
		for _, l := range canonical[i:end] {
			sb.Values(runID, l.ID, database.JSONB[models.Listing]{Data: l}, now)
		}
		query, args := sb.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			log.WithError(err).Error("Failed to insert canonical listings")
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert canonical listings")
		}
	}

	members := flattenMembers(runID, reports)
	for i := 0; i < len(members); i += batchSize {
		end := i + batchSize
		if end > len(members) {
			end = len(members)
		}

		sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
		sb.InsertInto("canonical_members")
		sb.Cols("run_id", "canonical_id", "member_id", "source")
		for _, m := range members[i:end] {
			sb.Values(m.RunID, m.CanonicalID, m.MemberID, m.Source)
		}
		query, args := sb.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			log.WithError(err).Error("Failed to insert cluster members")
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert cluster members")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit")
	}

	log.WithFields(map[string]any{
		"canonical": len(canonical),
		"clusters":  len(reports),
	}).Info("Replaced canonical set")
	return nil
}

// flattenMembers expands merge reports into one row per cluster member,
// carrying each member's own scrape source.
func flattenMembers(runID string, reports []models.MergeReport) []memberRow {
	var rows []memberRow
	for _, report := range reports {
		for _, m := range report.Members {
			rows = append(rows, memberRow{
				RunID:       runID,
				CanonicalID: report.CanonicalID,
				MemberID:    m.MemberID,
				Source:      m.Source,
			})
		}
	}
	return rows
}

// List returns the current canonical set.
func (r *Repository) List(ctx context.Context) ([]models.Listing, error) {
	ctx, span := tracing.StartSpan(ctx, "canonical.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("run_id", "id", "data", "created_at")
	sb.From("canonical_listings")
	sb.OrderBy("id ASC")

	query, args := sb.Build()
	var rows []listingRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list canonical listings")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list canonical listings")
	}

	listings := make([]models.Listing, 0, len(rows))
	for i := range rows {
		listings = append(listings, rows[i].Data.GetValue())
	}
	return listings, nil
}

// Get retrieves a canonical listing by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Listing, error) {
	ctx, span := tracing.StartSpan(ctx, "canonical.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("run_id", "id", "data", "created_at")
	sb.From("canonical_listings")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var result listingRow
	if err := r.db.GetContext(ctx, &result, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "canonical listing %s not found", id)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to get canonical listing")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get canonical listing")
	}

	listing := result.Data.GetValue()
	return &listing, nil
}

// Members returns the staged listing IDs folded into a canonical listing.
// A canonical listing with no member rows was never merged.
func (r *Repository) Members(ctx context.Context, canonicalID string) ([]models.ClusterMember, error) {
	ctx, span := tracing.StartSpan(ctx, "canonical.Repository.Members")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("run_id", "canonical_id", "member_id", "source")
	sb.From("canonical_members")
	sb.Where(sb.Equal("canonical_id", canonicalID))
	sb.OrderBy("member_id ASC")

	query, args := sb.Build()
	var rows []memberRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"canonical_id": canonicalID}).Error("Failed to list cluster members")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list cluster members")
	}

	members := make([]models.ClusterMember, 0, len(rows))
	for _, row := range rows {
		members = append(members, models.ClusterMember{
			CanonicalID: row.CanonicalID,
			MemberID:    row.MemberID,
			Source:      row.Source,
		})
	}
	return members, nil
}

// LatestRunID returns the run that produced the current canonical set, or ""
// when no run has completed yet.
func (r *Repository) LatestRunID(ctx context.Context) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "canonical.Repository.LatestRunID")
	defer span.End()

	var runID string
	query := "SELECT run_id FROM canonical_listings ORDER BY created_at DESC LIMIT 1"
	if err := r.db.GetContext(ctx, &runID, query); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return "", nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get latest run ID")
		return "", httperror.NewHTTPError(http.StatusInternalServerError, "failed to get latest run")
	}
	return runID, nil
}
