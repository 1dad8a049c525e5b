package scorer

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/parcel-verify/internal/canonical"
	"github.com/sells-group/parcel-verify/internal/geo"
	"github.com/sells-group/parcel-verify/internal/parcel"
)

const maxScore = 100

// Deductions applied per finding.
const (
	penaltyMissingField      = 20
	penaltyJurisdiction      = 30
	penaltyAreaMismatch      = 25
	penaltyAreaDrift         = 5
	penaltyAreaUncomputable  = 15
	penaltyGeometryMissing   = 30
	penaltyGeometryType      = 30
	penaltyRingShape         = 20
	penaltyImplausibleRecord = 5
)

// Plausibility bounds for the administrative record.
const (
	minSurveyNumberLen = 3
	maxPlausibleArea   = 1000.0
	minPlausibleArea   = 0.001
)

// reconciliation accumulates findings for a single Reconcile call.
type reconciliation struct {
	score    int
	errors   []string
	warnings []string
}

func (r *reconciliation) fail(penalty int, format string, args ...any) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
	r.score -= penalty
}

func (r *reconciliation) warn(penalty int, format string, args ...any) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
	r.score -= penalty
}

// Reconcile cross-checks an administrative record against a survey record.
// It never fails: every problem is reported in the result, deductions stack,
// and the score is clamped to [0, 100]. Inputs are not modified.
func Reconcile(admin *parcel.AdministrativeRecord, survey *parcel.SurveyRecord, cfg parcel.VerificationConfig) parcel.VerificationResult {
	if admin == nil {
		admin = &parcel.AdministrativeRecord{}
	}
	if survey == nil {
		survey = &parcel.SurveyRecord{}
	}

	r := &reconciliation{score: maxScore}
	key := canonical.Key(admin.State, admin.District, admin.SurveyNumber, survey.SurveyID)

	r.checkRequiredFields(admin, survey, cfg.RequiredFields)
	r.checkJurisdiction("State", admin.State, survey.State)
	r.checkJurisdiction("District", admin.District, survey.District)
	r.checkDeclaredArea(admin.AreaHectares, survey.AreaHectares, cfg.AreaTolerancePercent)
	if survey.AreaHectares == nil && survey.Geometry != nil {
		r.checkDerivedArea(admin.AreaHectares, survey, cfg.AreaTolerancePercent)
	}
	r.checkGeometry(survey)
	r.checkPlausibility(admin)

	score := clamp(r.score)
	return parcel.VerificationResult{
		IsValid:      verdict(r.errors, score),
		Score:        score,
		Errors:       nonNil(r.errors),
		Warnings:     nonNil(r.warnings),
		CanonicalKey: key,
	}
}

func (r *reconciliation) checkRequiredFields(admin *parcel.AdministrativeRecord, survey *parcel.SurveyRecord, fields []string) {
	for _, f := range fields {
		var present bool
		if f == parcel.FieldSurveyID {
			present = survey.HasValue(f)
		} else {
			present = admin.HasValue(f)
		}
		if !present {
			r.fail(penaltyMissingField, "Missing required field: %s", f)
		}
	}
}

// checkJurisdiction compares one administrative unit when both records name it.
func (r *reconciliation) checkJurisdiction(label, adminValue, surveyValue string) {
	if adminValue == "" || surveyValue == "" {
		return
	}
	if normalizeText(adminValue) != normalizeText(surveyValue) {
		r.fail(penaltyJurisdiction, "%s mismatch between administrative and survey records", label)
	}
}

func (r *reconciliation) checkDeclaredArea(adminArea, surveyArea *float64, tolerance float64) {
	if adminArea == nil || surveyArea == nil {
		return
	}
	pct, ok := percentDiff(*adminArea, *surveyArea)
	if !ok {
		return
	}
	switch {
	case pct > tolerance:
		r.fail(penaltyAreaMismatch, "Area mismatch: administrative (%s ha) vs survey (%s ha) - %.2f%% difference",
			formatHectares(*adminArea), formatHectares(*surveyArea), pct)
	case pct > tolerance/2:
		r.warn(penaltyAreaDrift, "Area difference: %.2f%% (within tolerance but worth reviewing)", pct)
	}
}

// checkDerivedArea substitutes the planar estimate for a missing survey area.
// Only the out-of-tolerance branch applies to the derived figure.
func (r *reconciliation) checkDerivedArea(adminArea *float64, survey *parcel.SurveyRecord, tolerance float64) {
	derived, err := geo.PlanarAreaHectares(survey.Geometry)
	if err != nil {
		r.fail(penaltyAreaUncomputable, "Failed to calculate area from geometry: %v", err)
		return
	}
	if adminArea == nil {
		return
	}
	pct, ok := percentDiff(*adminArea, derived)
	if ok && pct > tolerance {
		r.fail(penaltyAreaMismatch, "Calculated area mismatch: administrative (%s ha) vs calculated (%.4f ha) - %.2f%% difference",
			formatHectares(*adminArea), derived, pct)
	}
}

func (r *reconciliation) checkGeometry(survey *parcel.SurveyRecord) {
	g := survey.Geometry
	switch {
	case g == nil:
		r.fail(penaltyGeometryMissing, "Missing geometry data in survey record")
		return
	case g.Type != parcel.GeometryPolygon:
		r.fail(penaltyGeometryType, "Geometry must be a Polygon")
		return
	}

	poly, err := geo.Polygon(g)
	if err != nil {
		r.fail(penaltyRingShape, "Polygon coordinates are malformed")
		return
	}
	ring := geo.OuterRing(poly)
	switch {
	case geo.RingLength(ring) < geo.MinRingCoords:
		r.fail(penaltyRingShape, "Polygon must have at least 4 coordinates")
	case !geo.IsClosed(ring):
		r.fail(penaltyRingShape, "Polygon must be closed (first and last coordinates must be the same, gap %.1f m)",
			geo.ClosureGapMeters(ring))
	}
}

func (r *reconciliation) checkPlausibility(admin *parcel.AdministrativeRecord) {
	if admin.SurveyNumber != "" && len([]rune(admin.SurveyNumber)) < minSurveyNumberLen {
		r.warn(penaltyImplausibleRecord, "Survey number seems unusually short")
	}
	if admin.AreaHectares == nil {
		return
	}
	if *admin.AreaHectares > maxPlausibleArea {
		r.warn(penaltyImplausibleRecord, "Parcel area is unusually large (>1000 hectares)")
	}
	if *admin.AreaHectares < minPlausibleArea {
		r.warn(penaltyImplausibleRecord, "Parcel area is unusually small (<0.001 hectares)")
	}
}

// percentDiff normalizes against the administrative area only. It reports
// false when the administrative area cannot serve as a divisor.
func percentDiff(adminArea, surveyArea float64) (float64, bool) {
	if adminArea <= 0 || math.IsNaN(adminArea) || math.IsInf(adminArea, 0) {
		return 0, false
	}
	return math.Abs(adminArea-surveyArea) / adminArea * 100, true
}

// normalizeText lowercases, trims and collapses internal whitespace.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(cases.Lower(language.Und).String(s)), " ")
}

func formatHectares(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func clamp(score int) int {
	switch {
	case score < 0:
		return 0
	case score > maxScore:
		return maxScore
	}
	return score
}

// verdict is the validity rule: no errors and a passing score.
func verdict(errs []string, score int) bool {
	return len(errs) == 0 && score >= parcel.PassingScore
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
