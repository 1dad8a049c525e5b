// Package validate performs the structural checks each source document must
// pass before reconciliation is attempted. The two validators are independent.
package validate

import (
	"encoding/json"
	"errors"
	"math"
	"slices"
	"strings"

	"github.com/sells-group/parcel-verify/internal/geo"
	"github.com/sells-group/parcel-verify/internal/parcel"
)

// Document sources named in StructuralError.
const (
	SourceAdministrative = "Administrative"
	SourceSurvey         = "Survey"
)

// Result is the outcome of a structural check.
type Result struct {
	Valid  bool     `json:"is_valid"`
	Errors []string `json:"errors"`
}

func newResult(errs []string) Result {
	if errs == nil {
		errs = []string{}
	}
	return Result{Valid: len(errs) == 0, Errors: errs}
}

// Err returns a *StructuralError for an invalid result and nil otherwise.
func (r Result) Err(source string) error {
	if r.Valid {
		return nil
	}
	return &StructuralError{Source: source, Errors: r.Errors}
}

// StructuralError is raised when a document is malformed or lacks a required
// field. Reconciliation must not run on such a document.
type StructuralError struct {
	Source string
	Errors []string
}

func (e *StructuralError) Error() string {
	return e.Source + " data validation failed: " + strings.Join(e.Errors, ", ")
}

// Administrative checks the shape of an administrative record.
func Administrative(r *parcel.AdministrativeRecord) Result {
	if r == nil {
		return newResult([]string{notObject(SourceAdministrative)})
	}

	var errs []string
	required := []struct {
		name  string
		value string
	}{
		{parcel.FieldState, r.State},
		{parcel.FieldDistrict, r.District},
		{parcel.FieldSurveyNumber, r.SurveyNumber},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, missingField(f.name))
		}
	}
	if !validArea(r.AreaHectares) {
		errs = append(errs, msgInvalidArea)
	}
	return newResult(errs)
}

// Survey checks the shape of a survey record, including its boundary ring.
func Survey(r *parcel.SurveyRecord) Result {
	if r == nil {
		return newResult([]string{notObject(SourceSurvey)})
	}

	var errs []string
	if strings.TrimSpace(r.SurveyID) == "" {
		errs = append(errs, "Missing or invalid "+parcel.FieldSurveyID)
	}

	switch {
	case r.Geometry == nil:
		errs = append(errs, msgMissingGeometry)
	case r.Geometry.Type != parcel.GeometryPolygon:
		errs = append(errs, "Geometry must be a Polygon")
	default:
		poly, err := geo.Polygon(r.Geometry)
		if err != nil {
			errs = append(errs, msgInvalidCoordinates)
			break
		}
		if geo.RingLength(geo.OuterRing(poly)) < geo.MinRingCoords {
			errs = append(errs, "Polygon must have at least 4 coordinates")
		}
	}

	if !validArea(r.AreaHectares) {
		errs = append(errs, msgInvalidArea)
	}
	return newResult(errs)
}

// AdministrativeJSON decodes and validates a raw administrative document.
// The record is nil only when the input is not a JSON object.
func AdministrativeJSON(data []byte) (*parcel.AdministrativeRecord, Result) {
	var r parcel.AdministrativeRecord
	schemaErrs, ok := decode(data, &r, SourceAdministrative)
	if !ok {
		return nil, newResult(schemaErrs)
	}
	return &r, merge(schemaErrs, Administrative(&r))
}

// SurveyJSON decodes and validates a raw survey document.
// The record is nil only when the input is not a JSON object.
func SurveyJSON(data []byte) (*parcel.SurveyRecord, Result) {
	var r parcel.SurveyRecord
	schemaErrs, ok := decode(data, &r, SourceSurvey)
	if !ok {
		return nil, newResult(schemaErrs)
	}
	return &r, merge(schemaErrs, Survey(&r))
}

const (
	msgInvalidArea        = "area_hectares must be a non-negative number"
	msgInvalidCoordinates = "Invalid geometry coordinates"
	msgMissingGeometry    = "Missing geometry data"
)

func decode(data []byte, dst any, source string) ([]string, bool) {
	err := json.Unmarshal(data, dst)
	if err == nil {
		return nil, true
	}

	var schemaErr *parcel.SchemaError
	if !errors.As(err, &schemaErr) {
		return []string{notObject(source)}, false
	}

	var errs []string
	for _, f := range schemaErr.Fields() {
		switch f {
		case parcel.FieldAreaHectares:
			errs = append(errs, msgInvalidArea)
		case parcel.FieldGeometry:
			errs = append(errs, msgMissingGeometry)
		case parcel.FieldState, parcel.FieldDistrict, parcel.FieldSurveyNumber:
			if source == SourceAdministrative {
				errs = append(errs, missingField(f))
			} else {
				errs = append(errs, "Invalid value for field: "+f)
			}
		case parcel.FieldSurveyID:
			errs = append(errs, "Missing or invalid "+parcel.FieldSurveyID)
		default:
			errs = append(errs, "Invalid value for field: "+f)
		}
	}
	return errs, true
}

// merge appends record-level messages after schema messages, skipping
// duplicates produced by a field that failed to decode.
func merge(schemaErrs []string, r Result) Result {
	errs := schemaErrs
	for _, e := range r.Errors {
		if !slices.Contains(errs, e) {
			errs = append(errs, e)
		}
	}
	return newResult(errs)
}

func validArea(a *float64) bool {
	if a == nil {
		return true
	}
	return *a >= 0 && !math.IsInf(*a, 0) && !math.IsNaN(*a)
}

func missingField(name string) string {
	return "Missing or invalid required field: " + name
}

func notObject(source string) string {
	return source + " data must be a valid JSON object"
}
