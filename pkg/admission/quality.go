package admission

import (
	"context"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/bramble/pkg/models"
	"github.com/Ramsey-B/bramble/pkg/tracing"
)

// Quality gate reasons.
const (
	ReasonNotEvaluated = "not yet evaluated"
	ReasonScoreAbove   = "score meets display threshold"
	ReasonScoreBelow   = "score below display threshold"
)

// QualityFilter is a view-level gate over evaluation scores. It never mutates
// or deletes listings or scores; raising a threshold hides listings, lowering
// it brings them back.
type QualityFilter struct {
	logger ectologger.Logger
	config QualityConfig
}

// QualityConfig contains the display thresholds
type QualityConfig struct {
	MinDisplayScore           int      // Threshold for most listings (default: 15)
	MinDisplayScoreApartments int      // Threshold for apartment-style listings (default: 10)
	ApartmentListingTypes     []string // Listing types that use the apartment threshold
}

// DefaultQualityConfig returns default quality gate thresholds
func DefaultQualityConfig() QualityConfig {
	return QualityConfig{
		MinDisplayScore:           15,
		MinDisplayScoreApartments: 10,
		ApartmentListingTypes:     []string{"appartement", "apartment", "studio"},
	}
}

// NewQualityFilter creates a new quality gate
func NewQualityFilter(logger ectologger.Logger, config QualityConfig) *QualityFilter {
	return &QualityFilter{
		logger: logger,
		config: config,
	}
}

// Apply partitions listings into the display set. Listings without an
// evaluation pass through: the gate only filters on evidence, never on its
// absence.
func (f *QualityFilter) Apply(ctx context.Context, listings []models.Listing, evaluations map[string]models.Evaluation) ([]models.Listing, []models.AdmissionDecision) {
	ctx, span := tracing.StartSpan(ctx, "admission.QualityFilter.Apply")
	defer span.End()

	display := make([]models.Listing, 0, len(listings))
	decisions := make([]models.AdmissionDecision, 0, len(listings))

	for i := range listings {
		l := &listings[i]

		decision := models.AdmissionDecision{
			ListingID: l.ID,
			Title:     models.TruncateTitle(l.Title, titleMaxChars),
			Stage:     models.StageQuality,
		}

		eval, ok := evaluations[l.ID]
		switch {
		case !ok:
			decision.Kept = true
			decision.Reason = ReasonNotEvaluated
		case eval.OverallScore >= f.Threshold(l):
			decision.Kept = true
			decision.Reason = ReasonScoreAbove
		default:
			decision.Kept = false
			decision.Reason = ReasonScoreBelow
			f.logger.WithContext(ctx).WithFields(map[string]any{
				"listing_id": l.ID,
				"score":      eval.OverallScore,
				"threshold":  f.Threshold(l),
			}).Info("Hiding listing below quality threshold")
		}

		if decision.Kept {
			display = append(display, *l)
		}
		decisions = append(decisions, decision)
	}

	f.logger.WithContext(ctx).WithFields(map[string]any{
		"input":   len(listings),
		"display": len(display),
		"hidden":  len(listings) - len(display),
	}).Info("Quality gate pass completed")

	return display, decisions
}

// Threshold returns the display threshold for a listing. Apartment-style
// listings use the lower bar: they are scored against a stricter rubric by
// the evaluator, so equal scores do not mean equal quality across kinds.
func (f *QualityFilter) Threshold(l *models.Listing) int {
	if l.ListingType == nil {
		return f.config.MinDisplayScore
	}

	lt := strings.ToLower(strings.TrimSpace(*l.ListingType))
	for _, apt := range f.config.ApartmentListingTypes {
		if lt == strings.ToLower(apt) {
			return f.config.MinDisplayScoreApartments
		}
	}
	return f.config.MinDisplayScore
}
