package validate

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/parcel-verify/internal/parcel"
)

func polygon(t *testing.T, typ, coords string) *geojson.Geometry {
	t.Helper()
	var g geojson.Geometry
	require.NoError(t, json.Unmarshal([]byte(`{"type":"`+typ+`","coordinates":`+coords+`}`), &g))
	return &g
}

func validAdmin() *parcel.AdministrativeRecord {
	return &parcel.AdministrativeRecord{
		State:        "Karnataka",
		District:     "Bangalore Urban",
		SurveyNumber: "123/4",
		AreaHectares: parcel.Float(2.0),
	}
}

func TestAdministrative(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *parcel.AdministrativeRecord)
		want   []string
	}{
		{"valid", func(*parcel.AdministrativeRecord) {}, []string{}},
		{"blank state", func(r *parcel.AdministrativeRecord) { r.State = "   " }, []string{
			"Missing or invalid required field: state",
		}},
		{"missing district and survey number", func(r *parcel.AdministrativeRecord) {
			r.District = ""
			r.SurveyNumber = "\t"
		}, []string{
			"Missing or invalid required field: district",
			"Missing or invalid required field: survey_no",
		}},
		{"negative area", func(r *parcel.AdministrativeRecord) { r.AreaHectares = parcel.Float(-1) }, []string{
			"area_hectares must be a non-negative number",
		}},
		{"nan area", func(r *parcel.AdministrativeRecord) { r.AreaHectares = parcel.Float(math.NaN()) }, []string{
			"area_hectares must be a non-negative number",
		}},
		{"zero area is allowed", func(r *parcel.AdministrativeRecord) { r.AreaHectares = parcel.Float(0) }, []string{}},
		{"absent area is allowed", func(r *parcel.AdministrativeRecord) { r.AreaHectares = nil }, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validAdmin()
			tt.mutate(r)
			res := Administrative(r)
			assert.Equal(t, tt.want, res.Errors)
			assert.Equal(t, len(tt.want) == 0, res.Valid)
		})
	}
}

func TestAdministrative_Nil(t *testing.T) {
	res := Administrative(nil)
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"Administrative data must be a valid JSON object"}, res.Errors)
}

func TestAdministrative_DoesNotMutate(t *testing.T) {
	r := validAdmin()
	r.State = "  Karnataka  "
	_ = Administrative(r)
	assert.Equal(t, "  Karnataka  ", r.State)
}

func TestSurvey(t *testing.T) {
	closed := `[[[0,0],[0,1],[1,1],[1,0],[0,0]]]`

	tests := []struct {
		name   string
		record func(t *testing.T) *parcel.SurveyRecord
		want   []string
	}{
		{"valid", func(t *testing.T) *parcel.SurveyRecord {
			return &parcel.SurveyRecord{SurveyID: "FMB001", Geometry: polygon(t, "Polygon", closed)}
		}, []string{}},
		{"blank id", func(t *testing.T) *parcel.SurveyRecord {
			return &parcel.SurveyRecord{SurveyID: " ", Geometry: polygon(t, "Polygon", closed)}
		}, []string{"Missing or invalid fmb_id"}},
		{"missing geometry", func(t *testing.T) *parcel.SurveyRecord {
			return &parcel.SurveyRecord{SurveyID: "FMB001"}
		}, []string{"Missing geometry data"}},
		{"point geometry", func(t *testing.T) *parcel.SurveyRecord {
			return &parcel.SurveyRecord{SurveyID: "FMB001", Geometry: polygon(t, "Point", `[1,2]`)}
		}, []string{"Geometry must be a Polygon"}},
		{"malformed coordinates", func(t *testing.T) *parcel.SurveyRecord {
			return &parcel.SurveyRecord{SurveyID: "FMB001", Geometry: polygon(t, "Polygon", `[[1,2]]`)}
		}, []string{"Invalid geometry coordinates"}},
		{"three positions", func(t *testing.T) *parcel.SurveyRecord {
			return &parcel.SurveyRecord{SurveyID: "FMB001", Geometry: polygon(t, "Polygon", `[[[0,0],[0,1],[0,0]]]`)}
		}, []string{"Polygon must have at least 4 coordinates"}},
		{"no rings", func(t *testing.T) *parcel.SurveyRecord {
			return &parcel.SurveyRecord{SurveyID: "FMB001", Geometry: polygon(t, "Polygon", `[]`)}
		}, []string{"Polygon must have at least 4 coordinates"}},
		{"open ring passes structure", func(t *testing.T) *parcel.SurveyRecord {
			return &parcel.SurveyRecord{SurveyID: "FMB001", Geometry: polygon(t, "Polygon", `[[[0,0],[0,1],[1,1],[1,0]]]`)}
		}, []string{}},
		{"negative area", func(t *testing.T) *parcel.SurveyRecord {
			return &parcel.SurveyRecord{SurveyID: "FMB001", Geometry: polygon(t, "Polygon", closed), AreaHectares: parcel.Float(-0.5)}
		}, []string{"area_hectares must be a non-negative number"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Survey(tt.record(t))
			assert.Equal(t, tt.want, res.Errors)
			assert.Equal(t, len(tt.want) == 0, res.Valid)
		})
	}
}

func TestAdministrativeJSON(t *testing.T) {
	rec, res := AdministrativeJSON([]byte(`{"state":"Karnataka","district":"Mysuru","survey_no":"45/2","area_hectares":1.5,"hissa":"2A"}`))
	require.True(t, res.Valid)
	require.NotNil(t, rec)
	assert.Equal(t, "Mysuru", rec.District)
	assert.JSONEq(t, `"2A"`, string(rec.Extra["hissa"]))
}

func TestAdministrativeJSON_WrongTypes(t *testing.T) {
	rec, res := AdministrativeJSON([]byte(`{"state":7,"district":"Mysuru","area_hectares":"big"}`))
	require.NotNil(t, rec)
	assert.False(t, res.Valid)
	assert.Equal(t, []string{
		"Missing or invalid required field: state",
		"area_hectares must be a non-negative number",
		"Missing or invalid required field: survey_no",
	}, res.Errors)
}

func TestAdministrativeJSON_NotObject(t *testing.T) {
	for _, doc := range []string{`[]`, `"x"`, `{broken`, ``} {
		rec, res := AdministrativeJSON([]byte(doc))
		assert.Nil(t, rec, doc)
		assert.Equal(t, []string{"Administrative data must be a valid JSON object"}, res.Errors, doc)
	}
}

func TestSurveyJSON(t *testing.T) {
	rec, res := SurveyJSON([]byte(`{"fmb_id":"FMB001","geometry":{"type":"Polygon","coordinates":[[[0,0],[0,1],[1,1],[1,0],[0,0]]]}}`))
	require.True(t, res.Valid, res.Errors)
	assert.Equal(t, "FMB001", rec.SurveyID)

	rec, res = SurveyJSON([]byte(`{"fmb_id":12,"geometry":"none"}`))
	require.NotNil(t, rec)
	assert.Equal(t, []string{"Missing or invalid fmb_id", "Missing geometry data"}, res.Errors)
}

func TestResultErr(t *testing.T) {
	assert.NoError(t, Result{Valid: true, Errors: []string{}}.Err(SourceSurvey))

	err := Survey(&parcel.SurveyRecord{}).Err(SourceSurvey)
	require.Error(t, err)

	var se *StructuralError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, SourceSurvey, se.Source)
	assert.Equal(t, "Survey data validation failed: Missing or invalid fmb_id, Missing geometry data", err.Error())
}
