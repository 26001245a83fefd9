// Package admission implements the pre- and post-evaluation listing gates
package admission

import (
	"context"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/bramble/pkg/fingerprint"
	"github.com/Ramsey-B/bramble/pkg/models"
	"github.com/Ramsey-B/bramble/pkg/tracing"
)

// Stable rejection reasons. Operators aggregate on these strings, so changes
// here are breaking.
const (
	ReasonRequestType      = "listing is a request, not an offer"
	ReasonSaleNoRental     = "sale listing with no rental terms"
	ReasonShortDescription = "description too short"
	ReasonTooOld           = "listing older than retention window"
	ReasonNearDuplicate    = "near-duplicate content"
	ReasonAdmitted         = "admitted"
)

const titleMaxChars = 80

// Listing types that are demand-side posts rather than offers.
var skipTypes = map[string]struct{}{
	"demande-location": {},
	"demande-vente":    {},
}

// Sale types kept only when the description mentions rental terms.
var saleTypes = map[string]struct{}{
	"offre-vente": {},
}

// rentalKeywords mark a sale listing that also offers a rental arrangement.
var rentalKeywords = []string{"location", "louer", "locataire", "locat", "bail", "mensuel", "mois"}

// PreFilter rejects listings that should never reach the expensive external
// evaluation: requests, stale posts, contentless posts, and near-duplicates.
type PreFilter struct {
	logger ectologger.Logger
	config PreFilterConfig
}

// PreFilterConfig contains the admission thresholds
type PreFilterConfig struct {
	MinDescriptionChars    int // Minimum trimmed description length (default: 50)
	MaxListingAgeDays      int // Max days between publication and the run (default: 548)
	FingerprintPrefixChars int // Description prefix length for the near-duplicate hash
}

// DefaultPreFilterConfig returns default pre-filter thresholds
func DefaultPreFilterConfig() PreFilterConfig {
	return PreFilterConfig{
		MinDescriptionChars:    50,
		MaxListingAgeDays:      548,
		FingerprintPrefixChars: fingerprint.DefaultPrefixChars,
	}
}

// NewPreFilter creates a new pre-admission gate
func NewPreFilter(logger ectologger.Logger, config PreFilterConfig) *PreFilter {
	return &PreFilter{
		logger: logger,
		config: config,
	}
}

// Apply gates the listings in input order against the reference time. Rules
// run in a fixed order and the first rejection wins; every listing gets a
// decision either way. First-seen wins for near-duplicate content, so the
// input order determines which of two clones survives.
func (f *PreFilter) Apply(ctx context.Context, listings []models.Listing, now time.Time) ([]models.Listing, []models.AdmissionDecision) {
	ctx, span := tracing.StartSpan(ctx, "admission.PreFilter.Apply")
	defer span.End()

	kept := make([]models.Listing, 0, len(listings))
	decisions := make([]models.AdmissionDecision, 0, len(listings))
	seenFingerprints := make(map[string]struct{}, len(listings))

	for i := range listings {
		l := &listings[i]
		reason := f.rejectReason(l, now, seenFingerprints)

		decision := models.AdmissionDecision{
			ListingID: l.ID,
			Title:     models.TruncateTitle(l.Title, titleMaxChars),
			Stage:     models.StagePreFilter,
			Kept:      reason == "",
			Reason:    reason,
		}
		if decision.Kept {
			decision.Reason = ReasonAdmitted
			kept = append(kept, *l)
		} else {
			f.logger.WithContext(ctx).WithFields(map[string]any{
				"listing_id": l.ID,
				"source":     l.Source,
				"reason":     reason,
			}).Info("Rejected listing before evaluation")
		}
		decisions = append(decisions, decision)
	}

	f.logger.WithContext(ctx).WithFields(map[string]any{
		"input":    len(listings),
		"kept":     len(kept),
		"rejected": len(listings) - len(kept),
	}).Info("Pre-filter pass completed")

	return kept, decisions
}

// rejectReason returns "" when the listing is admitted. The fingerprint set
// is only updated for admitted listings so a rejected clone never shadows a
// later admissible one.
func (f *PreFilter) rejectReason(l *models.Listing, now time.Time, seen map[string]struct{}) string {
	if l.ListingType != nil {
		lt := strings.ToLower(strings.TrimSpace(*l.ListingType))
		if _, ok := skipTypes[lt]; ok {
			return ReasonRequestType
		}
		if _, ok := saleTypes[lt]; ok && !mentionsRental(l.Description) {
			return ReasonSaleNoRental
		}
	}

	if len([]rune(strings.TrimSpace(l.Description))) < f.config.MinDescriptionChars {
		return ReasonShortDescription
	}

	if l.DatePublished != nil {
		age := now.Sub(*l.DatePublished)
		if age > time.Duration(f.config.MaxListingAgeDays)*24*time.Hour {
			return ReasonTooOld
		}
	}

	fp := fingerprint.GenerateWithPrefix(l, f.config.FingerprintPrefixChars)
	if _, ok := seen[fp]; ok {
		return ReasonNearDuplicate
	}
	seen[fp] = struct{}{}

	return ""
}

func mentionsRental(description string) bool {
	desc := strings.ToLower(description)
	for _, kw := range rentalKeywords {
		if strings.Contains(desc, kw) {
			return true
		}
	}
	return false
}
