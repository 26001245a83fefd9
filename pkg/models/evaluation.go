package models

import "time"

// Evaluation is the score produced by the external evaluation service for a
// single listing. The pipeline only reads evaluations; it never writes them
// back or mutates them.
type Evaluation struct {
	ListingID     string    `json:"listing_id" db:"listing_id"`
	OverallScore  int       `json:"overall_score" db:"overall_score"`
	MatchSummary  string    `json:"match_summary" db:"match_summary"`
	Highlights    []string  `json:"highlights,omitempty"`
	Concerns      []string  `json:"concerns,omitempty"`
	DateEvaluated time.Time `json:"date_evaluated" db:"date_evaluated"`
}
