package models

// Admission stages. Every listing that passes through a gate gets a decision
// recorded for the stage, whether it was kept or not.
const (
	StagePreFilter = "prefilter"
	StageQuality   = "quality"
)

// AdmissionDecision records why a listing was kept or rejected by a gate.
// The reason strings are stable so operators can aggregate on them.
type AdmissionDecision struct {
	ListingID string `json:"listing_id" db:"listing_id"`
	Title     string `json:"title" db:"title"`
	Stage     string `json:"stage" db:"stage"`
	Kept      bool   `json:"kept" db:"kept"`
	Reason    string `json:"reason" db:"reason"`
}

// TruncateTitle shortens a title for decision records and log lines.
func TruncateTitle(title string, maxChars int) string {
	runes := []rune(title)
	if len(runes) <= maxChars {
		return title
	}
	return string(runes[:maxChars])
}
