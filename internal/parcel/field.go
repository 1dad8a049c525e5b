// Package parcel defines the administrative and survey documents exchanged with
// the verification engine, its configuration, and its verdict.
package parcel

// Document keys recognized by the engine. Any other key is carried through
// the Extra pass-through map untouched.
const (
	FieldState        = "state"
	FieldDistrict     = "district"
	FieldSurveyNumber = "survey_no"
	FieldVillage      = "village"
	FieldTaluk        = "taluk"
	FieldOwnerName    = "owner_name"
	FieldPattaNumber  = "patta_number"
	FieldKhataNumber  = "khata_number"
	FieldAreaHectares = "area_hectares"
	FieldSurveyID     = "fmb_id"
	FieldGeometry     = "geometry"
)

// GeometryPolygon is the only GeoJSON geometry type the engine interprets.
const GeometryPolygon = "Polygon"

// FieldTypeError reports a recognized document key holding a JSON value of
// the wrong type.
type FieldTypeError struct {
	Field string
	Want  string
}

func (e *FieldTypeError) Error() string {
	return "parcel: field " + e.Field + " must be a " + e.Want
}

// SchemaError collects every FieldTypeError found while decoding one document.
type SchemaError struct {
	Issues []*FieldTypeError
}

func (e *SchemaError) Error() string {
	if len(e.Issues) == 1 {
		return e.Issues[0].Error()
	}
	msg := "parcel: document has invalid fields:"
	for _, i := range e.Issues {
		msg += " " + i.Field
	}
	return msg
}

// Fields returns the offending keys in the order they were decoded.
func (e *SchemaError) Fields() []string {
	out := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		out[i] = issue.Field
	}
	return out
}
