package merging

import (
	"context"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/bramble/pkg/models"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func intPtr(i int) *int { return &i }

func baseListing(id string) models.Listing {
	return models.Listing{
		ID:          id,
		Source:      "source-" + id,
		SourceURL:   "https://source-" + id + ".example/" + id,
		Title:       "Listing " + id,
		DateScraped: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCompleteness(t *testing.T) {
	sparse := baseListing("a")
	sparse.Description = ""
	sparse.Title = ""
	assert.Equal(t, 0, Completeness(&sparse))

	rich := baseListing("b")
	rich.Description = "desc"
	rich.Location = strPtr("Sutton")
	rich.Price = floatPtr(1200)
	rich.Bedrooms = intPtr(2)
	rich.Images = []string{"a.jpg"}
	// title + description + location + price + bedrooms + images
	assert.Equal(t, 6, Completeness(&rich))

	// Identity fields never count
	rich.SourceURL = "https://elsewhere.example/x"
	assert.Equal(t, 6, Completeness(&rich))

	// Whitespace-only fields do not count as populated
	blank := baseListing("c")
	blank.Title = "   "
	blank.Description = "\t"
	blank.Location = strPtr(" ")
	assert.Equal(t, 0, Completeness(&blank))
}

func TestMerge_WhitespaceFieldsTreatedAsEmpty(t *testing.T) {
	e := NewEngine(testLogger())

	primary := baseListing("primary")
	primary.Description = "a long description making this the primary record"
	primary.Price = floatPtr(1200)
	primary.Images = []string{"main.jpg"}
	primary.Location = strPtr("  ")
	primary.ContactEmail = strPtr(" ")

	secondary := baseListing("secondary")
	secondary.Location = strPtr("Sutton, QC")
	secondary.ContactEmail = strPtr("host@example.com")

	merged, err := e.Merge(context.Background(), []models.Listing{primary, secondary})
	require.NoError(t, err)

	// A blank primary field never blocks a secondary's real value
	assert.Equal(t, "primary", merged.ID)
	assert.Equal(t, "Sutton, QC", *merged.Location)
	assert.Equal(t, "host@example.com", *merged.ContactEmail)
}

func TestMerge_MostCompleteWins(t *testing.T) {
	e := NewEngine(testLogger())

	sparse := baseListing("sparse")
	sparse.ContactEmail = strPtr("host@example.com")

	rich := baseListing("rich")
	rich.Description = "A long and helpful description"
	rich.Location = strPtr("Sutton, QC")
	rich.Price = floatPtr(1500)
	rich.Images = []string{"main.jpg"}

	merged, err := e.Merge(context.Background(), []models.Listing{sparse, rich})
	require.NoError(t, err)

	// The richer member is primary: identity comes from it
	assert.Equal(t, "rich", merged.ID)
	assert.Equal(t, "source-rich", merged.Source)

	// Gaps are filled from the sparse member
	require.NotNil(t, merged.ContactEmail)
	assert.Equal(t, "host@example.com", *merged.ContactEmail)
}

func TestMerge_PrimaryValuesNeverOverwritten(t *testing.T) {
	e := NewEngine(testLogger())

	primary := baseListing("primary")
	primary.Description = "primary description"
	primary.Price = floatPtr(1000)
	primary.Location = strPtr("Sutton")
	primary.Bedrooms = intPtr(3)

	secondary := baseListing("secondary")
	secondary.Price = floatPtr(9999)
	secondary.Location = strPtr("Elsewhere")

	merged, err := e.Merge(context.Background(), []models.Listing{primary, secondary})
	require.NoError(t, err)

	assert.Equal(t, "primary", merged.ID)
	assert.Equal(t, 1000.0, *merged.Price)
	assert.Equal(t, "Sutton", *merged.Location)
}

func TestMerge_ListsUnionPreservingPrimaryOrder(t *testing.T) {
	e := NewEngine(testLogger())

	primary := baseListing("primary")
	primary.Description = "the longer record with more fields populated here"
	primary.Images = []string{"a.jpg", "b.jpg"}
	primary.Amenities = []string{"sauna"}

	secondary := baseListing("secondary")
	secondary.Images = []string{"b.jpg", "c.jpg"}
	secondary.Amenities = []string{"sauna", "lake access"}

	merged, err := e.Merge(context.Background(), []models.Listing{primary, secondary})
	require.NoError(t, err)

	assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg"}, merged.Images)
	assert.Equal(t, []string{"sauna", "lake access"}, merged.Amenities)
}

func TestMerge_Idempotent(t *testing.T) {
	e := NewEngine(testLogger())

	a := baseListing("a")
	a.Description = "description for listing a, reasonably long"
	a.Price = floatPtr(800)
	b := baseListing("b")
	b.Location = strPtr("Sutton")

	once, err := e.Merge(context.Background(), []models.Listing{a, b})
	require.NoError(t, err)

	// Merging the merged record with the originals changes nothing
	twice, err := e.Merge(context.Background(), []models.Listing{once, a, b})
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestMerge_TieBreaksOnInputOrder(t *testing.T) {
	e := NewEngine(testLogger())

	a := baseListing("a")
	b := baseListing("b")

	merged, err := e.Merge(context.Background(), []models.Listing{a, b})
	require.NoError(t, err)
	assert.Equal(t, "a", merged.ID)

	merged, err = e.Merge(context.Background(), []models.Listing{b, a})
	require.NoError(t, err)
	assert.Equal(t, "b", merged.ID)
}

func TestMerge_EmptyCluster(t *testing.T) {
	e := NewEngine(testLogger())
	_, err := e.Merge(context.Background(), nil)
	assert.Error(t, err)
}

func TestMergeAll_FailedClusterPassesMembersThrough(t *testing.T) {
	e := NewEngine(testLogger())

	// Members with no source URL fail validation after merging
	bad1 := models.Listing{ID: "bad1", Source: "s"}
	bad2 := models.Listing{ID: "bad2", Source: "s"}

	good := baseListing("good")

	canonical, reports := e.MergeAll(context.Background(), [][]models.Listing{
		{bad1, bad2},
		{good},
	})

	require.Len(t, canonical, 3)
	assert.Equal(t, "bad1", canonical[0].ID)
	assert.Equal(t, "bad2", canonical[1].ID)
	assert.Equal(t, "good", canonical[2].ID)
	assert.Empty(t, reports)
}

func TestMergeAll_Reports(t *testing.T) {
	e := NewEngine(testLogger())

	a := baseListing("a")
	a.Description = "a long description making this the primary record"
	b := baseListing("b")

	canonical, reports := e.MergeAll(context.Background(), [][]models.Listing{{a, b}})

	require.Len(t, canonical, 1)
	require.Len(t, reports, 1)
	assert.Equal(t, "a", reports[0].CanonicalID)
	assert.Equal(t, []string{"a", "b"}, reports[0].MemberIDs)
	assert.Equal(t, []string{"source-a", "source-b"}, reports[0].Sources)
}

func TestMergeAll_MembersKeepOwnSource(t *testing.T) {
	e := NewEngine(testLogger())

	// Two members from the same marketplace, one from another. The source
	// summary deduplicates, but each member row keeps its own source.
	a := baseListing("a")
	a.Description = "a long description making this the primary record"
	a.Source = "leboncoin"
	b := baseListing("b")
	b.Source = "leboncoin"
	c := baseListing("c")
	c.Source = "seloger"

	_, reports := e.MergeAll(context.Background(), [][]models.Listing{{a, b, c}})

	require.Len(t, reports, 1)
	assert.Equal(t, []string{"leboncoin", "seloger"}, reports[0].Sources)
	assert.Equal(t, []models.ClusterMember{
		{CanonicalID: "a", MemberID: "a", Source: "leboncoin"},
		{CanonicalID: "a", MemberID: "b", Source: "leboncoin"},
		{CanonicalID: "a", MemberID: "c", Source: "seloger"},
	}, reports[0].Members)
}
