// Package chi exposes the retrieval engine over HTTP. Tier fallbacks are
// invisible here: the search endpoint answers success:true unless the
// request itself is malformed.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/medisearch/casedex/internal/domain"
	alertuc "github.com/medisearch/casedex/internal/usecase/alert"
	"github.com/medisearch/casedex/internal/usecase/diagnose"
	healthuc "github.com/medisearch/casedex/internal/usecase/health"
	searchuc "github.com/medisearch/casedex/internal/usecase/search"
)

const (
	defaultTopK = 5
	maxTopK     = 50
)

// Server holds the HTTP handlers for the retrieval API.
type Server struct {
	search *searchuc.Service
	alert  *alertuc.Service
	health *healthuc.Service
	logger *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	alert *alertuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	return &Server{search: search, alert: alert, health: health, logger: logger}
}

// Register mounts all routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Post("/v1/search", s.SearchSimilarCases)
	r.Get("/v1/cases/symptom-search", s.SearchBySymptoms)
	r.Get("/v1/cases/{caseID}", s.GetCase)
	r.Post("/v1/alerts/evaluate", s.EvaluateAlert)
	r.Get("/healthz", s.Healthz)
}

// searchRequest is the POST /v1/search body. Query overrides the composed
// fields when set.
type searchRequest struct {
	Query     string `json:"query"`
	Diagnosis string `json:"diagnosis"`
	Findings  string `json:"findings"`
	Location  string `json:"location"`
	Keywords  string `json:"keywords"`
	TopK      int    `json:"top_k"`
}

// SearchSimilarCases handles POST /v1/search.
func (s *Server) SearchSimilarCases(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest,
			searchuc.FailureEnvelope(fmt.Errorf("invalid request body: %w", err)))
		return
	}

	query := req.Query
	if query == "" {
		query = searchuc.ComposeQuery(searchuc.QueryInput{
			Diagnosis: req.Diagnosis,
			Findings:  req.Findings,
			Location:  req.Location,
			Keywords:  req.Keywords,
		})
	}

	results := s.search.SimilarCases(r.Context(), query, clampTopK(req.TopK))
	writeJSON(w, http.StatusOK, searchuc.Format(results, query))
}

// SearchBySymptoms handles GET /v1/cases/symptom-search.
func (s *Server) SearchBySymptoms(w http.ResponseWriter, r *http.Request) {
	symptoms := r.URL.Query().Get("q")
	if symptoms == "" {
		writeJSON(w, http.StatusBadRequest,
			searchuc.FailureEnvelope(fmt.Errorf("query parameter q is required")))
		return
	}

	topK := defaultTopK * 2
	if raw := r.URL.Query().Get("top_k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest,
				searchuc.FailureEnvelope(fmt.Errorf("invalid top_k: %w", err)))
			return
		}
		topK = clampTopK(n)
	}

	results, err := s.search.BySymptoms(r.Context(), symptoms, topK)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, searchuc.FailureEnvelope(err))
		return
	}
	writeJSON(w, http.StatusOK, searchuc.Format(results, symptoms))
}

// caseResponse is the GET /v1/cases/{caseID} body. Embeddings stay
// internal.
type caseResponse struct {
	CaseID      string     `json:"case_id"`
	Diagnosis   string     `json:"diagnosis"`
	Description string     `json:"description"`
	Symptoms    string     `json:"symptoms"`
	ImagePath   string     `json:"image_path"`
	Age         *int       `json:"age"`
	Sex         domain.Sex `json:"sex"`
}

// GetCase handles GET /v1/cases/{caseID}.
func (s *Server) GetCase(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "caseID")

	rec, err := s.search.Case(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrCaseNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "case not found"})
			return
		}
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, caseResponse{
		CaseID:      rec.ID,
		Diagnosis:   rec.Diagnosis,
		Description: rec.Description,
		Symptoms:    rec.Symptoms,
		ImagePath:   rec.ImagePath,
		Age:         rec.Age,
		Sex:         rec.Sex,
	})
}

// alertRequest is the POST /v1/alerts/evaluate body. ReportText, when
// set, is parsed into the structured fields first.
type alertRequest struct {
	ReportText string `json:"report_text"`
	Diagnosis  string `json:"diagnosis"`
	Confidence string `json:"confidence"`
	Findings   string `json:"findings"`
	Location   string `json:"location"`
}

// EvaluateAlert handles POST /v1/alerts/evaluate.
func (s *Server) EvaluateAlert(w http.ResponseWriter, r *http.Request) {
	var req alertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid request body: " + err.Error(),
		})
		return
	}

	report := domain.DiagnosisReport{
		Diagnosis:  req.Diagnosis,
		Confidence: req.Confidence,
		Findings:   req.Findings,
		Location:   req.Location,
	}
	if req.ReportText != "" {
		report = diagnose.ParseReport(req.ReportText)
	}

	decision := s.alert.Evaluate(r.Context(), report)
	writeJSON(w, http.StatusOK, decision)
}

// Healthz handles GET /healthz.
func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

func clampTopK(n int) int {
	if n <= 0 {
		return defaultTopK
	}
	if n > maxTopK {
		return maxTopK
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
