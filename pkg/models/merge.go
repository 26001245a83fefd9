package models

// MergeReport describes how one canonical listing was assembled from a
// duplicate cluster. Sources is the deduplicated source summary for event
// payloads; Members keeps each member paired with its own scrape source.
type MergeReport struct {
	CanonicalID string          `json:"canonical_id"`
	MemberIDs   []string        `json:"member_ids"`
	Sources     []string        `json:"sources"`
	Members     []ClusterMember `json:"members,omitempty"`
	Signals     []string        `json:"signals,omitempty"`
}

// ClusterMember links a staged listing to the canonical listing it was folded
// into.
type ClusterMember struct {
	CanonicalID string `json:"canonical_id"`
	MemberID    string `json:"member_id"`
	Source      string `json:"source,omitempty"`
}
