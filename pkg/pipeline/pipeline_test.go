package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/bramble/pkg/admission"
	"github.com/Ramsey-B/bramble/pkg/matching"
	"github.com/Ramsey-B/bramble/pkg/merging"
	"github.com/Ramsey-B/bramble/pkg/models"
)

var refTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func newTestPipeline() *Pipeline {
	logger := testLogger()
	return NewPipeline(
		logger,
		matching.NewEngine(logger, matching.DefaultConfig()),
		merging.NewEngine(logger),
		admission.NewPreFilter(logger, admission.DefaultPreFilterConfig()),
		admission.NewQualityFilter(logger, admission.DefaultQualityConfig()),
	)
}

func venue(id, title string) models.Listing {
	return models.Listing{
		ID:          id,
		Source:      "source-" + id,
		SourceURL:   "https://source-" + id + ".example/" + id,
		Title:       title,
		Description: "Listing " + id + " has a long enough description to clear the admission gate easily.",
		DateScraped: refTime,
	}
}

func TestRun_EndToEnd(t *testing.T) {
	p := newTestPipeline()

	// Two listings for the same venue from different sources, sharing a
	// website domain; the second carries fields the first lacks.
	a := venue("a", "Mountain Lodge")
	a.Website = strPtr("https://www.lodge.example.com")
	a.Price = floatPtr(1800)

	b := venue("b", "The Mountain Lodge Retreat")
	b.Website = strPtr("https://lodge.example.com/contact")
	b.ContactEmail = strPtr("stay@lodge.example.com")

	// An unrelated listing, scored below the display threshold
	c := venue("c", "Auberge du Nord")

	// A request post that never reaches evaluation
	d := venue("d", "Cherche logement")
	d.ListingType = strPtr("demande-location")

	evals := map[string]models.Evaluation{
		"c": {ListingID: "c", OverallScore: 8},
	}

	result := p.Run(context.Background(), "run-1", []models.Listing{a, b, c, d}, evals, refTime)

	assert.Equal(t, 4, result.InputCount)

	// a+b merged into one canonical listing carrying both fields
	require.Len(t, result.Canonical, 3)
	require.Len(t, result.Reports, 1)
	assert.ElementsMatch(t, []string{"a", "b"}, result.Reports[0].MemberIDs)

	merged := result.Canonical[0]
	assert.NotNil(t, merged.Price)
	assert.NotNil(t, merged.ContactEmail)

	// d rejected at the pre-filter, c hidden by the quality gate
	require.Len(t, result.Admitted, 2)
	require.Len(t, result.Display, 1)
	assert.Equal(t, result.Reports[0].CanonicalID, result.Display[0].ID)

	// Every canonical listing got a pre-filter decision, every admitted one a
	// quality decision
	assert.Len(t, result.Decisions, len(result.Canonical)+len(result.Admitted))
}

func TestRun_Deterministic(t *testing.T) {
	p := newTestPipeline()

	a := venue("a", "Mountain Lodge")
	a.Website = strPtr("https://lodge.example.com")
	b := venue("b", "Mountain Lodge Again")
	b.Website = strPtr("https://lodge.example.com")
	c := venue("c", "Auberge du Nord")

	input := []models.Listing{a, b, c}
	evals := map[string]models.Evaluation{"c": {ListingID: "c", OverallScore: 20}}

	first := p.Run(context.Background(), "run-1", input, evals, refTime)
	for i := 0; i < 5; i++ {
		again := p.Run(context.Background(), "run-1", input, evals, refTime)
		assert.Equal(t, first, again)
	}
}

func TestRun_EmptySnapshot(t *testing.T) {
	p := newTestPipeline()

	result := p.Run(context.Background(), "run-1", nil, nil, refTime)

	assert.Equal(t, 0, result.InputCount)
	assert.Empty(t, result.Canonical)
	assert.Empty(t, result.Display)
	assert.Empty(t, result.Decisions)
}

func TestRun_MergeHappensBeforeGating(t *testing.T) {
	p := newTestPipeline()

	// Each member alone fails the description gate, but the cluster's
	// primary carries a full description, so the merged record is admitted.
	a := venue("a", "Mountain Lodge")
	a.Website = strPtr("https://lodge.example.com")

	b := venue("b", "Mountain Lodge")
	b.Website = strPtr("https://lodge.example.com")
	b.Description = "too short"

	result := p.Run(context.Background(), "run-1", []models.Listing{b, a}, nil, refTime)

	require.Len(t, result.Canonical, 1)
	require.Len(t, result.Display, 1)
}

type fakeListingStore struct{ listings []models.Listing }

func (f *fakeListingStore) List(ctx context.Context) ([]models.Listing, error) {
	return f.listings, nil
}

type fakeEvalStore struct{ evals map[string]models.Evaluation }

func (f *fakeEvalStore) Map(ctx context.Context) (map[string]models.Evaluation, error) {
	return f.evals, nil
}

type fakeCanonicalStore struct {
	runID     string
	canonical []models.Listing
}

func (f *fakeCanonicalStore) ReplaceRun(ctx context.Context, runID string, canonical []models.Listing, reports []models.MergeReport) error {
	f.runID = runID
	f.canonical = canonical
	return nil
}

type fakeDecisionStore struct{ decisions []models.AdmissionDecision }

func (f *fakeDecisionStore) InsertRun(ctx context.Context, runID string, decisions []models.AdmissionDecision) error {
	f.decisions = decisions
	return nil
}

type fakeEmitter struct {
	merged    int
	admitted  int
	rejected  int
	completed int
}

func (f *fakeEmitter) EmitListingMerged(ctx context.Context, runID string, report models.MergeReport) error {
	f.merged++
	return nil
}

func (f *fakeEmitter) EmitDecision(ctx context.Context, runID string, decision models.AdmissionDecision) error {
	if decision.Kept {
		f.admitted++
	} else {
		f.rejected++
	}
	return nil
}

func (f *fakeEmitter) EmitRunCompleted(ctx context.Context, result *Result) error {
	f.completed++
	return nil
}

func TestServiceRunOnce(t *testing.T) {
	a := venue("a", "Mountain Lodge")
	a.Website = strPtr("https://lodge.example.com")
	b := venue("b", "Mountain Lodge")
	b.Website = strPtr("https://lodge.example.com")
	c := venue("c", "Cherche logement")
	c.ListingType = strPtr("demande-location")

	listings := &fakeListingStore{listings: []models.Listing{a, b, c}}
	evals := &fakeEvalStore{}
	canonical := &fakeCanonicalStore{}
	decisions := &fakeDecisionStore{}
	emitter := &fakeEmitter{}

	svc := NewService(testLogger(), newTestPipeline(), listings, evals, canonical, decisions, emitter)

	result, err := svc.RunOnce(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, result.RunID, canonical.runID)
	assert.Len(t, canonical.canonical, 2)
	assert.NotEmpty(t, decisions.decisions)

	assert.Equal(t, 1, emitter.merged)
	assert.Equal(t, 1, emitter.admitted)
	assert.Equal(t, 1, emitter.rejected)
	assert.Equal(t, 1, emitter.completed)
}
