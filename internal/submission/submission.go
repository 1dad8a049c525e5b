// Package submission runs the full intake workflow for a parcel: structural
// validation of both documents, reconciliation, and construction of the
// registry draft for an accepted parcel.
package submission

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/parcel-verify/internal/metrics"
	"github.com/sells-group/parcel-verify/internal/parcel"
	"github.com/sells-group/parcel-verify/internal/scorer"
	"github.com/sells-group/parcel-verify/internal/validate"
)

// Status is the review state of a registry entry. Only the initial state is
// set here; the registry's reviewers own every later transition.
type Status string

// StatusPending is the state of every new draft.
const StatusPending Status = "pending"

// Draft is the registry entry produced for an accepted parcel.
type Draft struct {
	CanonicalKey       string                    `json:"canonical_key"`
	State              string                    `json:"state"`
	District           string                    `json:"district"`
	SurveyNumber       string                    `json:"survey_no"`
	SurveyID           string                    `json:"fmb_id"`
	Village            string                    `json:"village,omitempty"`
	Taluk              string                    `json:"taluk,omitempty"`
	AreaHectares       *float64                  `json:"area_hectares,omitempty"`
	Geometry           *geojson.Geometry         `json:"geometry"`
	AdministrativeData json.RawMessage           `json:"administrative_data"`
	SurveyData         json.RawMessage           `json:"survey_data"`
	Status             Status                    `json:"verification_status"`
	Score              int                       `json:"verification_score"`
	Notes              string                    `json:"verification_notes"`
	Verification       parcel.VerificationResult `json:"verification"`
}

// RejectedError is returned when reconciliation does not accept the parcel.
type RejectedError struct {
	Result parcel.VerificationResult
}

func (e *RejectedError) Error() string {
	if len(e.Result.Errors) == 0 {
		return fmt.Sprintf("Parcel verification failed: score %d is below %d", e.Result.Score, parcel.PassingScore)
	}
	return "Parcel verification failed: " + strings.Join(e.Result.Errors, ", ")
}

// ProcessDocuments decodes, validates and reconciles raw JSON documents.
// A structural failure is returned as *validate.StructuralError, with the
// administrative document checked first.
func ProcessDocuments(adminDoc, surveyDoc []byte, cfg parcel.VerificationConfig) (*Draft, error) {
	admin, res := validate.AdministrativeJSON(adminDoc)
	if err := res.Err(validate.SourceAdministrative); err != nil {
		metrics.ObserveMalformed()
		return nil, err
	}
	survey, res := validate.SurveyJSON(surveyDoc)
	if err := res.Err(validate.SourceSurvey); err != nil {
		metrics.ObserveMalformed()
		return nil, err
	}
	return reconcile(admin, survey, adminDoc, surveyDoc, cfg)
}

func reconcile(admin *parcel.AdministrativeRecord, survey *parcel.SurveyRecord, adminDoc, surveyDoc []byte, cfg parcel.VerificationConfig) (*Draft, error) {
	result := scorer.Reconcile(admin, survey, cfg)
	metrics.ObserveReconciled(result.IsValid, result.Score, len(result.Errors), len(result.Warnings))

	log := zap.L().With(
		zap.String("canonical_key", result.CanonicalKey),
		zap.String("fmb_id", survey.SurveyID),
		zap.Int("score", result.Score),
	)

	if !result.IsValid {
		log.Info("submission: parcel rejected", zap.Strings("errors", result.Errors))
		return nil, &RejectedError{Result: result}
	}

	log.Info("submission: parcel accepted", zap.Int("warnings", len(result.Warnings)))
	return &Draft{
		CanonicalKey:       result.CanonicalKey,
		State:              admin.State,
		District:           admin.District,
		SurveyNumber:       admin.SurveyNumber,
		SurveyID:           survey.SurveyID,
		Village:            admin.Village,
		Taluk:              admin.Taluk,
		AreaHectares:       draftArea(admin.AreaHectares, survey.AreaHectares),
		Geometry:           survey.Geometry,
		AdministrativeData: json.RawMessage(adminDoc),
		SurveyData:         json.RawMessage(surveyDoc),
		Status:             StatusPending,
		Score:              result.Score,
		Notes:              result.ReviewNotes(),
		Verification:       result,
	}, nil
}

// draftArea prefers the administrative area and falls back to the survey
// area when the administrative one is absent or zero. The planar estimate
// derived from geometry is never stored.
func draftArea(adminArea, surveyArea *float64) *float64 {
	if adminArea != nil && *adminArea != 0 {
		return parcel.Float(*adminArea)
	}
	if surveyArea != nil {
		return parcel.Float(*surveyArea)
	}
	return nil
}
