// Package merging folds duplicate clusters into golden listings
package merging

import (
	"context"
	"fmt"
	"sort"

	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"

	"github.com/Ramsey-B/bramble/pkg/models"
	"github.com/Ramsey-B/bramble/pkg/tracing"
)

// Engine merges duplicate clusters into single canonical listings
type Engine struct {
	logger   ectologger.Logger
	validate *validator.Validate
}

// NewEngine creates a new merge engine
func NewEngine(logger ectologger.Logger) *Engine {
	return &Engine{
		logger:   logger,
		validate: validator.New(),
	}
}

// Merge folds a duplicate cluster into one golden listing. The most complete
// member becomes the primary (ties break on input order); every other member
// only fills gaps. The result carries the primary's identity and provenance.
func (e *Engine) Merge(ctx context.Context, members []models.Listing) (models.Listing, error) {
	if len(members) == 0 {
		return models.Listing{}, fmt.Errorf("cannot merge an empty cluster")
	}

	ordered := make([]models.Listing, len(members))
	copy(ordered, members)
	sort.SliceStable(ordered, func(i, j int) bool {
		return Completeness(&ordered[i]) > Completeness(&ordered[j])
	})

	merged := ordered[0]
	// Detach the list headers so folding never aliases a member's backing array
	merged.Images = append([]string(nil), merged.Images...)
	merged.Amenities = append([]string(nil), merged.Amenities...)

	for i := 1; i < len(ordered); i++ {
		fold(&merged, &ordered[i])
	}

	if err := e.validate.Struct(&merged); err != nil {
		return models.Listing{}, fmt.Errorf("merged listing failed validation: %w", err)
	}

	return merged, nil
}

// MergeAll merges every cluster, returning the canonical listings and a
// report per multi-member cluster. A cluster whose merge fails passes its
// members through unmerged; one bad cluster never poisons the batch.
func (e *Engine) MergeAll(ctx context.Context, clusters [][]models.Listing) ([]models.Listing, []models.MergeReport) {
	ctx, span := tracing.StartSpan(ctx, "merging.Engine.MergeAll")
	defer span.End()

	canonical := make([]models.Listing, 0, len(clusters))
	reports := make([]models.MergeReport, 0)

	for _, members := range clusters {
		if len(members) == 0 {
			continue
		}
		if len(members) == 1 {
			canonical = append(canonical, members[0])
			continue
		}

		merged, err := e.Merge(ctx, members)
		if err != nil {
			ids := memberIDs(members)
			e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"member_ids": ids,
			}).Error("Failed to merge cluster; keeping members unmerged")
			canonical = append(canonical, members...)
			continue
		}

		canonical = append(canonical, merged)
		reports = append(reports, models.MergeReport{
			CanonicalID: merged.ID,
			MemberIDs:   memberIDs(members),
			Sources:     memberSources(members),
			Members:     clusterMembers(merged.ID, members),
		})

		e.logger.WithContext(ctx).WithFields(map[string]any{
			"canonical_id": merged.ID,
			"member_count": len(members),
		}).Info("Merged duplicate cluster")
	}

	return canonical, reports
}

func memberIDs(members []models.Listing) []string {
	ids := make([]string, len(members))
	for i := range members {
		ids[i] = members[i].ID
	}
	return ids
}

func clusterMembers(canonicalID string, members []models.Listing) []models.ClusterMember {
	out := make([]models.ClusterMember, len(members))
	for i := range members {
		out[i] = models.ClusterMember{
			CanonicalID: canonicalID,
			MemberID:    members[i].ID,
			Source:      members[i].Source,
		}
	}
	return out
}

func memberSources(members []models.Listing) []string {
	seen := make(map[string]struct{}, len(members))
	sources := make([]string, 0, len(members))
	for i := range members {
		if _, ok := seen[members[i].Source]; ok {
			continue
		}
		seen[members[i].Source] = struct{}{}
		sources = append(sources, members[i].Source)
	}
	return sources
}
