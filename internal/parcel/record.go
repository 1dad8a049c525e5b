package parcel

import (
	"bytes"
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// ErrNotObject is returned when a document is not a JSON object.
var ErrNotObject = eris.New("parcel: document must be a JSON object")

// AdministrativeRecord is the textual land record (state, district, survey
// number, ownership) issued by the revenue department.
type AdministrativeRecord struct {
	State        string
	District     string
	SurveyNumber string
	Village      string
	Taluk        string
	OwnerName    string
	PattaNumber  string
	KhataNumber  string
	AreaHectares *float64

	// Extra holds every unrecognized key verbatim.
	Extra map[string]json.RawMessage
}

// SurveyRecord is the field-measurement record carrying the parcel boundary.
type SurveyRecord struct {
	SurveyID     string
	Geometry     *geojson.Geometry
	AreaHectares *float64

	// State and District are optional on survey sheets; when present they
	// are cross-checked against the administrative record.
	State    string
	District string

	Extra map[string]json.RawMessage
}

// Float returns a pointer to v, for populating optional areas.
func Float(v float64) *float64 {
	return &v
}

// HasValue reports whether the named field is present and non-empty. Keys
// outside the fixed schema are looked up in Extra.
func (r *AdministrativeRecord) HasValue(field string) bool {
	if r == nil {
		return false
	}
	switch field {
	case FieldState:
		return r.State != ""
	case FieldDistrict:
		return r.District != ""
	case FieldSurveyNumber:
		return r.SurveyNumber != ""
	case FieldVillage:
		return r.Village != ""
	case FieldTaluk:
		return r.Taluk != ""
	case FieldOwnerName:
		return r.OwnerName != ""
	case FieldPattaNumber:
		return r.PattaNumber != ""
	case FieldKhataNumber:
		return r.KhataNumber != ""
	case FieldAreaHectares:
		return r.AreaHectares != nil
	}
	return extraHasValue(r.Extra, field)
}

// HasValue reports whether the named field is present and non-empty.
func (r *SurveyRecord) HasValue(field string) bool {
	if r == nil {
		return false
	}
	switch field {
	case FieldSurveyID:
		return r.SurveyID != ""
	case FieldGeometry:
		return r.Geometry != nil
	case FieldAreaHectares:
		return r.AreaHectares != nil
	case FieldState:
		return r.State != ""
	case FieldDistrict:
		return r.District != ""
	}
	return extraHasValue(r.Extra, field)
}

// UnmarshalJSON decodes the fixed schema and keeps unknown keys in Extra.
func (r *AdministrativeRecord) UnmarshalJSON(data []byte) error {
	d, err := newDecoder(data)
	if err != nil {
		return err
	}
	d.str(FieldState, &r.State)
	d.str(FieldDistrict, &r.District)
	d.str(FieldSurveyNumber, &r.SurveyNumber)
	d.str(FieldVillage, &r.Village)
	d.str(FieldTaluk, &r.Taluk)
	d.str(FieldOwnerName, &r.OwnerName)
	d.str(FieldPattaNumber, &r.PattaNumber)
	d.str(FieldKhataNumber, &r.KhataNumber)
	d.num(FieldAreaHectares, &r.AreaHectares)
	r.Extra = d.rest()
	return d.err()
}

// MarshalJSON writes the fixed schema followed by the pass-through keys.
func (r AdministrativeRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Extra)+9)
	for k, v := range r.Extra {
		out[k] = v
	}
	out[FieldState] = r.State
	out[FieldDistrict] = r.District
	out[FieldSurveyNumber] = r.SurveyNumber
	putString(out, FieldVillage, r.Village)
	putString(out, FieldTaluk, r.Taluk)
	putString(out, FieldOwnerName, r.OwnerName)
	putString(out, FieldPattaNumber, r.PattaNumber)
	putString(out, FieldKhataNumber, r.KhataNumber)
	if r.AreaHectares != nil {
		out[FieldAreaHectares] = *r.AreaHectares
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the fixed schema and keeps unknown keys in Extra.
func (r *SurveyRecord) UnmarshalJSON(data []byte) error {
	d, err := newDecoder(data)
	if err != nil {
		return err
	}
	d.str(FieldSurveyID, &r.SurveyID)
	d.geometry(FieldGeometry, &r.Geometry)
	d.num(FieldAreaHectares, &r.AreaHectares)
	d.str(FieldState, &r.State)
	d.str(FieldDistrict, &r.District)
	r.Extra = d.rest()
	return d.err()
}

// MarshalJSON writes the fixed schema followed by the pass-through keys.
func (r SurveyRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Extra)+5)
	for k, v := range r.Extra {
		out[k] = v
	}
	out[FieldSurveyID] = r.SurveyID
	if r.Geometry != nil {
		out[FieldGeometry] = r.Geometry
	}
	if r.AreaHectares != nil {
		out[FieldAreaHectares] = *r.AreaHectares
	}
	putString(out, FieldState, r.State)
	putString(out, FieldDistrict, r.District)
	return json.Marshal(out)
}

func putString(out map[string]any, key, v string) {
	if v != "" {
		out[key] = v
	}
}

func extraHasValue(extra map[string]json.RawMessage, field string) bool {
	v, ok := extra[field]
	if !ok || isNull(v) {
		return false
	}
	return !bytes.Equal(bytes.TrimSpace(v), []byte(`""`))
}

func isNull(v json.RawMessage) bool {
	return len(bytes.TrimSpace(v)) == 0 || bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// decoder pulls known keys out of a raw object, recording type mismatches
// instead of stopping at the first one.
type decoder struct {
	raw    map[string]json.RawMessage
	issues []*FieldTypeError
}

func newDecoder(data []byte) (*decoder, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return nil, ErrNotObject
	}
	return &decoder{raw: raw}, nil
}

func (d *decoder) take(key string) (json.RawMessage, bool) {
	v, ok := d.raw[key]
	if !ok {
		return nil, false
	}
	delete(d.raw, key)
	if isNull(v) {
		return nil, false
	}
	return v, true
}

func (d *decoder) str(key string, dst *string) {
	v, ok := d.take(key)
	if !ok {
		return
	}
	if err := json.Unmarshal(v, dst); err != nil {
		d.issues = append(d.issues, &FieldTypeError{Field: key, Want: "string"})
	}
}

func (d *decoder) num(key string, dst **float64) {
	v, ok := d.take(key)
	if !ok {
		return
	}
	var f float64
	if err := json.Unmarshal(v, &f); err != nil {
		d.issues = append(d.issues, &FieldTypeError{Field: key, Want: "number"})
		return
	}
	*dst = &f
}

func (d *decoder) geometry(key string, dst **geojson.Geometry) {
	v, ok := d.take(key)
	if !ok {
		return
	}
	var g geojson.Geometry
	if err := json.Unmarshal(v, &g); err != nil {
		d.issues = append(d.issues, &FieldTypeError{Field: key, Want: "GeoJSON geometry object"})
		return
	}
	*dst = &g
}

func (d *decoder) rest() map[string]json.RawMessage {
	if len(d.raw) == 0 {
		return nil
	}
	return d.raw
}

func (d *decoder) err() error {
	if len(d.issues) == 0 {
		return nil
	}
	return &SchemaError{Issues: d.issues}
}
