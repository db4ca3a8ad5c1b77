package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"loan-application-engine/internal/catalog"
	"loan-application-engine/internal/models"
	"loan-application-engine/internal/services/intent"
	"loan-application-engine/internal/services/matcher"
	"loan-application-engine/internal/services/pipeline"
	s3service "loan-application-engine/internal/services/s3"
	"loan-application-engine/internal/utils"
)

const maxBodyBytes = 1 << 20

// Upstream errors can quote credentials; callers only get this.
const msgExtractionFailed = "Failed to extract intent"

// Evaluator runs the decision pipeline.
type Evaluator interface {
	Evaluate(ctx context.Context, raw map[string]string) (*pipeline.Result, error)
	Submit(ctx context.Context, raw map[string]string) (*models.ApplicationRecord, error)
}

// ApplicationReader reads stored applications.
type ApplicationReader interface {
	GetApplication(ctx context.Context, id string) (*models.ApplicationRecord, error)
	ListApplications(ctx context.Context, limit int) ([]*models.ApplicationRecord, error)
}

// DocumentPresigner issues upload URLs for supporting documents.
type DocumentPresigner interface {
	PresignDocumentUpload(ctx context.Context, applicationID, filename, contentType string, expiry time.Duration) (*s3service.PresignedURLResult, error)
}

// IntentExtractor turns free text into submission fields.
type IntentExtractor interface {
	Extract(ctx context.Context, text string) (map[string]string, error)
}

// HealthCheck reports the status of one dependency.
type HealthCheck func(ctx context.Context) error

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// AnalyzeResponse is returned by the free-text analysis endpoint.
type AnalyzeResponse struct {
	Intent   *models.ApplicantProfile   `json:"intent"`
	Matches  []models.ProductMatch      `json:"matches"`
	Summary  AnalyzeSummary             `json:"summary"`
	Decision models.EligibilityDecision `json:"decision"`
}

// AnalyzeSummary condenses the match list.
type AnalyzeSummary struct {
	BestMatch     *models.ProductMatch `json:"best_match"`
	EligibleCount int                  `json:"eligible_count"`
}

// BatchResult is the outcome for one CSV row.
type BatchResult struct {
	Line     int                         `json:"line"`
	Decision *models.EligibilityDecision `json:"decision,omitempty"`
	Error    string                      `json:"error,omitempty"`
}

// DocumentRequest asks for an upload URL.
type DocumentRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

// ServerOptions holds the collaborators of the HTTP server. Only Pipeline and Catalog are required.
type ServerOptions struct {
	Pipeline     Evaluator
	Catalog      *catalog.Catalog
	Extractor    IntentExtractor
	Applications ApplicationReader
	Documents    DocumentPresigner
	Checks       map[string]HealthCheck
	PublicDir    string
	Logger       *zap.Logger
}

// Server serves the web form and the JSON API.
type Server struct {
	pipeline     Evaluator
	catalog      *catalog.Catalog
	extractor    IntentExtractor
	applications ApplicationReader
	documents    DocumentPresigner
	checks       map[string]HealthCheck
	publicDir    string
	logger       *zap.Logger
}

// NewServer creates the HTTP server.
func NewServer(opts ServerOptions) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &Server{
		pipeline:     opts.Pipeline,
		catalog:      opts.Catalog,
		extractor:    opts.Extractor,
		applications: opts.Applications,
		documents:    opts.Documents,
		checks:       opts.Checks,
		publicDir:    opts.PublicDir,
		logger:       logger,
	}
}

// Routes returns the CORS-wrapped router.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /api/health", s.healthHandler)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("POST /submit", s.submitHandler)
	mux.HandleFunc("POST /loan/analyze", s.analyzeHandler)
	mux.HandleFunc("POST /api/evaluate", s.evaluateHandler)
	mux.HandleFunc("POST /api/evaluate/batch", s.batchHandler)
	mux.HandleFunc("GET /api/products", s.productsHandler)
	mux.HandleFunc("GET /api/applications", s.listApplicationsHandler)
	mux.HandleFunc("GET /api/applications/{id}", s.getApplicationHandler)
	mux.HandleFunc("POST /api/applications/{id}/documents", s.documentHandler)

	mux.HandleFunc("GET /", s.staticHandler)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})

	return c.Handler(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	deps := make(map[string]string, len(s.checks))

	for name, check := range s.checks {
		if check == nil {
			deps[name] = "not configured"
			continue
		}
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		err := check(ctx)
		cancel()
		if err != nil {
			deps[name] = "disconnected"
			status = "degraded"
			continue
		}
		deps[name] = "connected"
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, Response{
		Success: status == "healthy",
		Message: "Loan Application Engine API is running",
		Data: map[string]interface{}{
			"status":       status,
			"dependencies": deps,
			"products":     s.catalog.Len(),
			"timestamp":    time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// submitHandler keeps the plain-text error contract of the web form.
func (s *Server) submitHandler(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	record, err := s.pipeline.Submit(r.Context(), fields)
	if err != nil {
		var pe *models.ProfileError
		if errors.As(err, &pe) {
			http.Error(w, profileErrorText(pe), http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to save data: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":       true,
		"id":       record.ID,
		"eligible": record.Decision.Eligible,
		"record":   record.Fields(),
	})
}

func (s *Server) evaluateHandler(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Error: err.Error()})
		return
	}

	result, err := s.pipeline.Evaluate(r.Context(), fields)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Data: result})
}

func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	if s.extractor == nil {
		writeJSON(w, http.StatusServiceUnavailable, Response{Error: "Intent extraction is not configured"})
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, Response{Error: "text is required"})
		return
	}

	fields, err := s.extractor.Extract(r.Context(), req.Text)
	if err != nil {
		s.logger.Warn("Intent extraction failed", zap.Error(err))
		writeJSON(w, http.StatusUnprocessableEntity, Response{Error: msgExtractionFailed})
		return
	}

	result, err := s.pipeline.Evaluate(r.Context(), fields)
	if err != nil {
		if pipeline.IsInvalidProfile(err) {
			writeJSON(w, http.StatusUnprocessableEntity, Response{Error: err.Error(), Data: fields})
			return
		}
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AnalyzeResponse{
		Intent:  result.Profile,
		Matches: result.Matches,
		Summary: AnalyzeSummary{
			BestMatch:     result.Best,
			EligibleCount: matcher.CountEligible(result.Matches),
		},
		Decision: result.Decision,
	})
}

func (s *Server) batchHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Error: "Failed to read body"})
		return
	}

	rows, parseErrs := utils.NewCSVParser().ParseApplicants(string(body))
	if len(rows) == 0 {
		msg := "No rows to evaluate"
		if len(parseErrs) > 0 {
			msg = parseErrs[0].Error()
		}
		writeJSON(w, http.StatusBadRequest, Response{Error: msg})
		return
	}

	results := make([]BatchResult, 0, len(rows))
	eligible := 0
	for _, row := range rows {
		res, err := s.pipeline.Evaluate(r.Context(), row.Fields)
		if err != nil {
			results = append(results, BatchResult{Line: row.Line, Error: err.Error()})
			continue
		}
		if res.Decision.Eligible {
			eligible++
		}
		d := res.Decision
		results = append(results, BatchResult{Line: row.Line, Decision: &d})
	}

	rowErrors := make([]string, 0, len(parseErrs))
	for _, e := range parseErrs {
		rowErrors = append(rowErrors, e.Error())
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"rows":       len(rows),
			"eligible":   eligible,
			"results":    results,
			"row_errors": rowErrors,
		},
	})
}

func (s *Server) productsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"version":  s.catalog.Version(),
			"products": s.catalog.Products(),
		},
	})
}

func (s *Server) listApplicationsHandler(w http.ResponseWriter, r *http.Request) {
	if s.applications == nil {
		writeJSON(w, http.StatusServiceUnavailable, Response{Error: "Storage is not configured"})
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, Response{Error: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	records, err := s.applications.ListApplications(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]map[string]string, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.Fields())
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: out})
}

func (s *Server) getApplicationHandler(w http.ResponseWriter, r *http.Request) {
	if s.applications == nil {
		writeJSON(w, http.StatusServiceUnavailable, Response{Error: "Storage is not configured"})
		return
	}

	record, err := s.applications.GetApplication(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: record.Fields()})
}

func (s *Server) documentHandler(w http.ResponseWriter, r *http.Request) {
	if s.documents == nil || s.applications == nil {
		writeJSON(w, http.StatusServiceUnavailable, Response{Error: "Document uploads are not configured"})
		return
	}

	id := r.PathValue("id")
	if _, err := s.applications.GetApplication(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}

	var req DocumentRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Error: "Invalid request body"})
		return
	}

	result, err := s.documents.PresignDocumentUpload(r.Context(), id, req.Filename, req.ContentType, 0)
	if err != nil {
		if errors.Is(err, s3service.ErrUnsupportedContentType) {
			writeJSON(w, http.StatusBadRequest, Response{Error: err.Error()})
			return
		}
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: result})
}

func (s *Server) staticHandler(w http.ResponseWriter, r *http.Request) {
	root, err := filepath.Abs(s.publicDir)
	if err != nil || s.publicDir == "" {
		http.NotFound(w, r)
		return
	}

	path := r.URL.Path
	if path == "/" {
		path = "/index.html"
	}

	filePath := filepath.Join(root, filepath.FromSlash(path))
	if filePath != root && !strings.HasPrefix(filePath, root+string(filepath.Separator)) {
		http.Error(w, "Access denied", http.StatusForbidden)
		return
	}

	info, err := os.Stat(filePath)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, filePath)
}

// writeError maps domain errors onto status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var pe *models.ProfileError
	switch {
	case errors.As(err, &pe):
		writeJSON(w, http.StatusBadRequest, Response{Error: profileErrorText(pe), Data: map[string]string{"field": pe.Field}})
	case errors.Is(err, models.ErrInvalidProfile):
		writeJSON(w, http.StatusBadRequest, Response{Error: err.Error()})
	case errors.Is(err, models.ErrApplicationNotFound):
		writeJSON(w, http.StatusNotFound, Response{Error: "Application not found"})
	case errors.Is(err, intent.ErrExtractionFailed):
		s.logger.Warn("Intent extraction failed", zap.Error(err))
		writeJSON(w, http.StatusUnprocessableEntity, Response{Error: msgExtractionFailed})
	default:
		s.logger.Error("Request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Response{Error: "Internal server error"})
	}
}

func profileErrorText(pe *models.ProfileError) string {
	if pe.Reason == models.MissingField(pe.Field).Reason {
		return "Missing field: " + pe.Field
	}
	return "Invalid field: " + pe.Field + " " + pe.Reason
}

func readFields(r *http.Request) (map[string]string, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	return DecodeFields(body)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
