// Package server exposes the verification engine over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sells-group/parcel-verify/internal/canonical"
	"github.com/sells-group/parcel-verify/internal/config"
	"github.com/sells-group/parcel-verify/internal/metrics"
	"github.com/sells-group/parcel-verify/internal/parcel"
	"github.com/sells-group/parcel-verify/internal/submission"
	"github.com/sells-group/parcel-verify/internal/validate"
)

// Server holds the handlers' shared configuration.
type Server struct {
	verification parcel.VerificationConfig
	httpCfg      config.ServerConfig
}

// New creates a Server.
func New(verification parcel.VerificationConfig, httpCfg config.ServerConfig) *Server {
	return &Server{verification: verification, httpCfg: httpCfg}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(echoRequestID)
	r.Use(jsonRecoverer)
	r.Use(accessLog)
	r.Use(metrics.Middleware())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.httpCfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(rateLimit(s.httpCfg.RateLimit, s.httpCfg.RateBurst))
		r.Use(maxBody(s.httpCfg.MaxBodyBytes))
		r.Post("/key", s.key)
		r.Post("/validate", s.validate)
		r.Post("/verify", s.verify)
	})
	return r
}

type keyRequest struct {
	State        string `json:"state"`
	District     string `json:"district"`
	SurveyNumber string `json:"survey_no"`
	SurveyID     string `json:"fmb_id"`
}

type documentsRequest struct {
	Administrative json.RawMessage `json:"administrative"`
	Survey         json.RawMessage `json:"survey"`
}

type validateResponse struct {
	Administrative validate.Result `json:"administrative"`
	Survey         validate.Result `json:"survey"`
}

type verifyResponse struct {
	Accepted bool                      `json:"accepted"`
	Result   parcel.VerificationResult `json:"result"`
	Draft    *submission.Draft         `json:"draft,omitempty"`
}

type structuralResponse struct {
	Error  string   `json:"error"`
	Source string   `json:"source"`
	Errors []string `json:"errors"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) key(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"canonical_key": canonical.Key(req.State, req.District, req.SurveyNumber, req.SurveyID),
	})
}

func (s *Server) validate(w http.ResponseWriter, r *http.Request) {
	var req documentsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	_, adminRes := validate.AdministrativeJSON(req.Administrative)
	_, surveyRes := validate.SurveyJSON(req.Survey)
	writeJSON(w, http.StatusOK, validateResponse{Administrative: adminRes, Survey: surveyRes})
}

func (s *Server) verify(w http.ResponseWriter, r *http.Request) {
	var req documentsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	draft, err := submission.ProcessDocuments(req.Administrative, req.Survey, s.verification)
	var (
		structural *validate.StructuralError
		rejected   *submission.RejectedError
	)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, verifyResponse{Accepted: true, Result: draft.Verification, Draft: draft})
	case errors.As(err, &rejected):
		writeJSON(w, http.StatusUnprocessableEntity, verifyResponse{Result: rejected.Result})
	case errors.As(err, &structural):
		writeJSON(w, http.StatusBadRequest, structuralResponse{
			Error:  structural.Error(),
			Source: structural.Source,
			Errors: structural.Errors,
		})
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeBody decodes the JSON request body into dst, writing the error
// response itself on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}
	writeError(w, http.StatusBadRequest, "invalid request body")
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
