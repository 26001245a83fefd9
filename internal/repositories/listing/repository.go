// Package listing persists the staged listing store
package listing

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/bramble/pkg/database"
	"github.com/Ramsey-B/bramble/pkg/fingerprint"
	"github.com/Ramsey-B/bramble/pkg/models"
	"github.com/Ramsey-B/bramble/pkg/tracing"
)

// Repository handles staged listing persistence. The staged store is a
// superset: listings are upserted on ingest and never deleted by the gates,
// so threshold changes re-run against everything ever scraped.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new listing repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const selectColumns = "id, source, source_url, fingerprint, data, date_scraped, created_at, updated_at"

type row struct {
	ID          string                        `db:"id"`
	Source      string                        `db:"source"`
	SourceURL   string                        `db:"source_url"`
	Fingerprint string                        `db:"fingerprint"`
	Data        database.JSONB[models.Listing] `db:"data"`
	DateScraped time.Time                     `db:"date_scraped"`
	CreatedAt   time.Time                     `db:"created_at"`
	UpdatedAt   time.Time                     `db:"updated_at"`
}

// UpsertResult contains the result of an upsert operation
type UpsertResult struct {
	Listing   *models.Listing
	IsNew     bool
	IsChanged bool
}

// Upsert creates or refreshes a staged listing keyed by its derived ID.
// A re-scrape with an unchanged fingerprint only bumps the scrape timestamp;
// changed content replaces the stored payload wholesale (the scraper's view
// of the page is authoritative, never merged in place).
func (r *Repository) Upsert(ctx context.Context, l *models.Listing) (*UpsertResult, error) {
	ctx, span := tracing.StartSpan(ctx, "listing.Repository.Upsert")
	defer span.End()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"listing_id": l.ID,
		"source":     l.Source,
	})

	fp := fingerprint.Generate(l)
	now := time.Now().UTC()

	previous, err := r.GetFingerprint(ctx, l.ID)
	if err != nil {
		return nil, err
	}

	if previous != "" && !fingerprint.HasChanged(previous, fp) {
		sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
		sb.Update("listings")
		sb.Set(sb.Assign("date_scraped", l.DateScraped), sb.Assign("updated_at", now))
		sb.Where(sb.Equal("id", l.ID))

		query, args := sb.Build()
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			log.WithError(err).Error("Failed to mark listing as seen")
			return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update listing")
		}

		log.Debug("Re-scrape with unchanged content")
		return &UpsertResult{Listing: l, IsNew: false, IsChanged: false}, nil
	}

	query := `
		INSERT INTO listings (id, source, source_url, fingerprint, data, date_scraped, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (id)
		DO UPDATE SET
			source = EXCLUDED.source,
			source_url = EXCLUDED.source_url,
			fingerprint = EXCLUDED.fingerprint,
			data = EXCLUDED.data,
			date_scraped = EXCLUDED.date_scraped,
			updated_at = EXCLUDED.updated_at
		RETURNING (xmax = 0) AS inserted
	`

	var inserted bool
	err = r.db.GetContext(ctx, &inserted, query,
		l.ID, l.Source, l.SourceURL, fp, database.JSONB[models.Listing]{Data: *l}, l.DateScraped, now,
	)
	if err != nil {
		log.WithError(err).Error("Failed to upsert listing")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert listing")
	}

	if inserted {
		log.Info("Created staged listing")
	} else {
		log.Info("Updated staged listing")
	}
	return &UpsertResult{Listing: l, IsNew: inserted, IsChanged: true}, nil
}

// List returns the full staged snapshot, most recently scraped first.
func (r *Repository) List(ctx context.Context) ([]models.Listing, error) {
	ctx, span := tracing.StartSpan(ctx, "listing.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(selectColumns)
	sb.From("listings")
	sb.OrderBy("date_scraped DESC", "id ASC")

	query, args := sb.Build()
	var rows []row
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list staged listings")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list listings")
	}

	listings := make([]models.Listing, 0, len(rows))
	for i := range rows {
		listings = append(listings, rows[i].Data.GetValue())
	}
	return listings, nil
}

// Get retrieves a staged listing by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Listing, error) {
	ctx, span := tracing.StartSpan(ctx, "listing.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(selectColumns)
	sb.From("listings")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var result row
	if err := r.db.GetContext(ctx, &result, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "listing %s not found", id)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to get listing")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get listing")
	}

	listing := result.Data.GetValue()
	return &listing, nil
}

// GetFingerprint returns the stored fingerprint for a listing, or "" when
// the listing is unknown.
func (r *Repository) GetFingerprint(ctx context.Context, id string) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "listing.Repository.GetFingerprint")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("fingerprint")
	sb.From("listings")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var fp string
	if err := r.db.GetContext(ctx, &fp, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return "", nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to get listing fingerprint")
		return "", httperror.NewHTTPError(http.StatusInternalServerError, "failed to get listing fingerprint")
	}
	return fp, nil
}

// Count returns the staged store size.
func (r *Repository) Count(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "listing.Repository.Count")
	defer span.End()

	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM listings"); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count listings")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count listings")
	}
	return count, nil
}
