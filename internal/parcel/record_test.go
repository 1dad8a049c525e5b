package parcel

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdministrativeRecord_Unmarshal(t *testing.T) {
	doc := `{
		"state": "Karnataka",
		"district": "Bangalore Urban",
		"survey_no": "123/4",
		"village": "Yelahanka",
		"taluk": "Bangalore North",
		"owner_name": "R. Gowda",
		"patta_number": "P-77",
		"area_hectares": 2.0,
		"mutation_history": [{"year": 2001}],
		"remarks": "inherited"
	}`

	var r AdministrativeRecord
	require.NoError(t, json.Unmarshal([]byte(doc), &r))

	assert.Equal(t, "Karnataka", r.State)
	assert.Equal(t, "Bangalore Urban", r.District)
	assert.Equal(t, "123/4", r.SurveyNumber)
	assert.Equal(t, "Yelahanka", r.Village)
	assert.Equal(t, "Bangalore North", r.Taluk)
	assert.Equal(t, "R. Gowda", r.OwnerName)
	assert.Equal(t, "P-77", r.PattaNumber)
	require.NotNil(t, r.AreaHectares)
	assert.InDelta(t, 2.0, *r.AreaHectares, 1e-12)

	require.Len(t, r.Extra, 2)
	assert.JSONEq(t, `[{"year": 2001}]`, string(r.Extra["mutation_history"]))
	assert.JSONEq(t, `"inherited"`, string(r.Extra["remarks"]))
}

func TestAdministrativeRecord_RoundTripKeepsExtra(t *testing.T) {
	doc := `{"state":"Karnataka","district":"Mysuru","survey_no":"45/2","khata_number":"K9","custom":{"a":[1,2,3]}}`

	var r AdministrativeRecord
	require.NoError(t, json.Unmarshal([]byte(doc), &r))

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, doc, string(out))
}

func TestAdministrativeRecord_NullsAreAbsent(t *testing.T) {
	var r AdministrativeRecord
	require.NoError(t, json.Unmarshal([]byte(`{"state":null,"area_hectares":null}`), &r))

	assert.Empty(t, r.State)
	assert.Nil(t, r.AreaHectares)
	assert.Nil(t, r.Extra)
}

func TestAdministrativeRecord_WrongTypes(t *testing.T) {
	var r AdministrativeRecord
	err := json.Unmarshal([]byte(`{"state":42,"district":"Mysuru","survey_no":["1"],"area_hectares":"2 ha"}`), &r)
	require.Error(t, err)

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{FieldState, FieldSurveyNumber, FieldAreaHectares}, schemaErr.Fields())
	assert.Equal(t, "Mysuru", r.District)
}

func TestRecord_NotObject(t *testing.T) {
	for _, doc := range []string{`[1,2]`, `"text"`, `12`} {
		var a AdministrativeRecord
		assert.True(t, errors.Is(json.Unmarshal([]byte(doc), &a), ErrNotObject), doc)

		var s SurveyRecord
		assert.True(t, errors.Is(json.Unmarshal([]byte(doc), &s), ErrNotObject), doc)
	}
}

func TestSurveyRecord_Unmarshal(t *testing.T) {
	doc := `{
		"fmb_id": "FMB001",
		"geometry": {"type": "Polygon", "coordinates": [[[0,0],[0,1],[1,1],[1,0],[0,0]]]},
		"area_hectares": 2.05,
		"state": "Karnataka",
		"surveyor": "KSRSAC"
	}`

	var r SurveyRecord
	require.NoError(t, json.Unmarshal([]byte(doc), &r))

	assert.Equal(t, "FMB001", r.SurveyID)
	require.NotNil(t, r.Geometry)
	assert.Equal(t, GeometryPolygon, r.Geometry.Type)
	require.NotNil(t, r.Geometry.Coordinates)
	assert.JSONEq(t, `[[[0,0],[0,1],[1,1],[1,0],[0,0]]]`, string(*r.Geometry.Coordinates))
	assert.Equal(t, "Karnataka", r.State)
	assert.Empty(t, r.District)
	assert.JSONEq(t, `"KSRSAC"`, string(r.Extra["surveyor"]))

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, doc, string(out))
}

func TestSurveyRecord_GeometryWrongType(t *testing.T) {
	var r SurveyRecord
	err := json.Unmarshal([]byte(`{"fmb_id":"F1","geometry":"POLYGON((0 0,1 1))"}`), &r)

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{FieldGeometry}, schemaErr.Fields())
	assert.Nil(t, r.Geometry)
	assert.Equal(t, "F1", r.SurveyID)
}

func TestHasValue(t *testing.T) {
	admin := &AdministrativeRecord{
		State:        "Karnataka",
		AreaHectares: Float(0),
		Extra: map[string]json.RawMessage{
			"patta":  json.RawMessage(`"P1"`),
			"blank":  json.RawMessage(`""`),
			"absent": json.RawMessage(`null`),
		},
	}

	assert.True(t, admin.HasValue(FieldState))
	assert.False(t, admin.HasValue(FieldDistrict))
	assert.True(t, admin.HasValue(FieldAreaHectares))
	assert.True(t, admin.HasValue("patta"))
	assert.False(t, admin.HasValue("blank"))
	assert.False(t, admin.HasValue("absent"))
	assert.False(t, admin.HasValue("unknown"))

	survey := &SurveyRecord{SurveyID: "F1"}
	assert.True(t, survey.HasValue(FieldSurveyID))
	assert.False(t, survey.HasValue(FieldGeometry))
	assert.False(t, survey.HasValue(FieldAreaHectares))

	var nilAdmin *AdministrativeRecord
	assert.False(t, nilAdmin.HasValue(FieldState))
}

func TestVerificationResult_ReviewNotes(t *testing.T) {
	r := VerificationResult{Warnings: []string{"Survey number seems unusually short", "Area difference: 3.00%"}}
	assert.Equal(t, "Survey number seems unusually short; Area difference: 3.00%", r.ReviewNotes())
	assert.Empty(t, VerificationResult{}.ReviewNotes())
}

func TestSchemaError_Message(t *testing.T) {
	one := &SchemaError{Issues: []*FieldTypeError{{Field: FieldState, Want: "string"}}}
	assert.Equal(t, "parcel: field state must be a string", one.Error())

	two := &SchemaError{Issues: []*FieldTypeError{{Field: FieldState, Want: "string"}, {Field: FieldAreaHectares, Want: "number"}}}
	assert.Equal(t, "parcel: document has invalid fields: state area_hectares", two.Error())
}
