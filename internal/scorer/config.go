// Package scorer reconciles an administrative record against its survey record
// and produces a bounded integrity score with itemized findings.
package scorer

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/parcel-verify/internal/parcel"
)

// DefaultConfig returns a fresh VerificationConfig with the stock
// tolerances and field lists. Each call returns new slices.
func DefaultConfig() parcel.VerificationConfig {
	return parcel.VerificationConfig{
		AreaTolerancePercent:    5,
		GeometryToleranceMeters: 10,
		RequiredFields: []string{
			parcel.FieldState,
			parcel.FieldDistrict,
			parcel.FieldSurveyNumber,
			parcel.FieldSurveyID,
		},
		OptionalFields: []string{
			parcel.FieldVillage,
			parcel.FieldTaluk,
			parcel.FieldAreaHectares,
			parcel.FieldOwnerName,
		},
	}
}

// ValidateConfig checks that a VerificationConfig is internally consistent.
func ValidateConfig(c parcel.VerificationConfig) error {
	var errs []string

	if c.AreaTolerancePercent < 0 || math.IsNaN(c.AreaTolerancePercent) || math.IsInf(c.AreaTolerancePercent, 0) {
		errs = append(errs, "area_tolerance_percent must be a finite number >= 0")
	}
	if c.GeometryToleranceMeters < 0 || math.IsNaN(c.GeometryToleranceMeters) {
		errs = append(errs, "geometry_tolerance_meters must be >= 0")
	}

	seen := make(map[string]bool, len(c.RequiredFields))
	for i, f := range c.RequiredFields {
		if strings.TrimSpace(f) == "" {
			errs = append(errs, fmt.Sprintf("required_fields[%d] must not be empty", i))
			continue
		}
		if seen[f] {
			errs = append(errs, fmt.Sprintf("required_fields contains %q twice", f))
		}
		seen[f] = true
	}
	for _, f := range c.OptionalFields {
		if seen[f] {
			errs = append(errs, fmt.Sprintf("field %q is both required and optional", f))
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
