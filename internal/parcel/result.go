package parcel

import "strings"

// PassingScore is the minimum integrity score a verified parcel must reach.
const PassingScore = 70

// VerificationConfig tunes reconciliation. It is passed by value on every
// call and never modified by the engine.
type VerificationConfig struct {
	AreaTolerancePercent    float64  `json:"area_tolerance_percent"`
	// GeometryToleranceMeters is reserved for boundary-distance checks and
	// does not affect the score.
	GeometryToleranceMeters float64  `json:"geometry_tolerance_meters"`
	RequiredFields          []string `json:"required_fields"`
	OptionalFields          []string `json:"optional_fields"`
}

// VerificationResult is the engine's verdict for one administrative/survey pair.
type VerificationResult struct {
	IsValid      bool     `json:"is_valid"`
	Score        int      `json:"score"`
	Errors       []string `json:"errors"`
	Warnings     []string `json:"warnings"`
	CanonicalKey string   `json:"canonical_key"`
}

// ReviewNotes joins the warnings into the note stored alongside a registry
// record for the reviewer.
func (r VerificationResult) ReviewNotes() string {
	return strings.Join(r.Warnings, "; ")
}
