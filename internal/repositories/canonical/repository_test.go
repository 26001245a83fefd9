package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/bramble/pkg/models"
)

func TestFlattenMembers(t *testing.T) {
	reports := []models.MergeReport{
		{
			CanonicalID: "canon-1",
			MemberIDs:   []string{"a", "b", "c"},
			Sources:     []string{"leboncoin", "seloger"},
			Members: []models.ClusterMember{
				{CanonicalID: "canon-1", MemberID: "a", Source: "leboncoin"},
				{CanonicalID: "canon-1", MemberID: "b", Source: "leboncoin"},
				{CanonicalID: "canon-1", MemberID: "c", Source: "seloger"},
			},
		},
	}

	rows := flattenMembers("run-1", reports)

	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.Equal(t, "run-1", row.RunID)
		assert.Equal(t, "canon-1", row.CanonicalID)
	}
	// Members sharing a source each keep their own, independent of the
	// deduplicated source summary
	assert.Equal(t, "leboncoin", rows[0].Source)
	assert.Equal(t, "leboncoin", rows[1].Source)
	assert.Equal(t, "seloger", rows[2].Source)
}

func TestFlattenMembers_Empty(t *testing.T) {
	assert.Empty(t, flattenMembers("run-1", nil))
}
