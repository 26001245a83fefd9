package admission

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/bramble/pkg/models"
)

func evalFor(id string, score int) models.Evaluation {
	return models.Evaluation{ListingID: id, OverallScore: score}
}

func TestQualityApply_UnevaluatedKept(t *testing.T) {
	f := NewQualityFilter(testLogger(), DefaultQualityConfig())

	l := admissible("a")
	display, decisions := f.Apply(context.Background(), []models.Listing{l}, nil)

	require.Len(t, display, 1)
	require.Len(t, decisions, 1)
	assert.True(t, decisions[0].Kept)
	assert.Equal(t, ReasonNotEvaluated, decisions[0].Reason)
	assert.Equal(t, models.StageQuality, decisions[0].Stage)
}

func TestQualityApply_ThresholdBoundary(t *testing.T) {
	f := NewQualityFilter(testLogger(), DefaultQualityConfig())

	at := admissible("at")
	below := admissible("below")

	evals := map[string]models.Evaluation{
		"at":    evalFor("at", 15),
		"below": evalFor("below", 14),
	}

	display, decisions := f.Apply(context.Background(), []models.Listing{at, below}, evals)

	require.Len(t, display, 1)
	assert.Equal(t, "at", display[0].ID)
	assert.Equal(t, ReasonScoreAbove, decisionFor(t, decisions, "at").Reason)
	assert.Equal(t, ReasonScoreBelow, decisionFor(t, decisions, "below").Reason)
}

func TestQualityApply_ApartmentThreshold(t *testing.T) {
	f := NewQualityFilter(testLogger(), DefaultQualityConfig())

	apt := admissible("apt")
	apt.ListingType = strPtr("Appartement")
	house := admissible("house")

	evals := map[string]models.Evaluation{
		"apt":   evalFor("apt", 12),
		"house": evalFor("house", 12),
	}

	display, _ := f.Apply(context.Background(), []models.Listing{apt, house}, evals)

	// 12 clears the apartment bar (10) but not the general one (15)
	require.Len(t, display, 1)
	assert.Equal(t, "apt", display[0].ID)
}

func TestQualityApply_Reversible(t *testing.T) {
	strict := NewQualityFilter(testLogger(), DefaultQualityConfig())

	lenientCfg := DefaultQualityConfig()
	lenientCfg.MinDisplayScore = 5
	lenient := NewQualityFilter(testLogger(), lenientCfg)

	l := admissible("a")
	evals := map[string]models.Evaluation{"a": evalFor("a", 10)}
	input := []models.Listing{l}

	hidden, _ := strict.Apply(context.Background(), input, evals)
	assert.Empty(t, hidden)

	// The same stored data reappears under a lower threshold: the gate is a
	// view, not a destructive filter.
	shown, _ := lenient.Apply(context.Background(), input, evals)
	require.Len(t, shown, 1)
	assert.Equal(t, "a", shown[0].ID)
}
