// Package api provides the HTTP REST API server for UnderwriteAI.
//
// It exposes endpoints for document analysis, ratio evaluation, policy
// threshold parsing and assessment, guideline indexing, dashboard payloads,
// and WebSocket progress streaming.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/harborlend/underwriteai/internal/agent"
	"github.com/harborlend/underwriteai/internal/config"
	"github.com/harborlend/underwriteai/internal/document"
	"github.com/harborlend/underwriteai/internal/llm"
	"github.com/harborlend/underwriteai/internal/policy"
	"github.com/harborlend/underwriteai/internal/report"
	"github.com/harborlend/underwriteai/internal/retrieval"
	"github.com/harborlend/underwriteai/internal/underwrite"
	"github.com/harborlend/underwriteai/pkg/models"
)

// previewChars is the length of the per-file text preview returned by /analyze.
const previewChars = 500

// Server is the HTTP API server.
type Server struct {
	router    chi.Router
	cfg       *config.Config
	orch      *agent.Orchestrator
	engine    *underwrite.Engine
	extractor policy.ThresholdExtractor
	store     *retrieval.Store // nil without an embedding key
	retriever *retrieval.Retriever
	apps      *appStore
	wsHub     *WSHub
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config) (*Server, error) {
	router, err := llm.NewRouterFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("LLM setup failed: %w", err)
	}

	opts := &llm.ChatOptions{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	}

	engine := underwrite.NewEngine(thresholdsFromConfig(cfg))
	extractor := policy.NewRegexExtractor()

	var store *retrieval.Store
	var retriever *retrieval.Retriever
	if cfg.LLM.OpenAIKey != "" {
		embedder, err := retrieval.NewOpenAIEmbedder(cfg.LLM.OpenAIKey,
			retrieval.WithEmbedderModel(cfg.Retrieval.EmbeddingModel))
		if err != nil {
			return nil, fmt.Errorf("embedder setup failed: %w", err)
		}
		store = retrieval.NewStore(retrieval.NewCachingEmbedder(embedder))
		retriever = retrieval.NewRetriever(store)
	} else {
		log.Println("api: no OpenAI key configured, policy retrieval disabled")
	}

	orch := agent.NewOrchestrator(agent.OrchestratorConfig{
		Provider:    router,
		Engine:      engine,
		Extractor:   extractor,
		Retriever:   retriever,
		ChatOptions: opts,
	})

	srv := &Server{
		cfg:       cfg,
		orch:      orch,
		engine:    engine,
		extractor: extractor,
		store:     store,
		retriever: retriever,
		apps:      newAppStore(),
		wsHub:     NewWSHub(),
	}

	orch.OnStage = func(stage string) {
		srv.wsHub.Broadcast(WSMessage{
			Type: "stage",
			Data: map[string]any{"stage": stage},
		})
	}

	srv.router = srv.buildRouter()
	return srv, nil
}

// thresholdsFromConfig maps configured cutoffs onto the ratio engine's
// threshold set, falling back to the defaults for unset values.
func thresholdsFromConfig(cfg *config.Config) underwrite.Thresholds {
	t := underwrite.DefaultThresholds()
	if cfg.Thresholds.MaxDTI > 0 {
		t.MaxDTI = cfg.Thresholds.MaxDTI
	}
	if cfg.Thresholds.MaxBackEndDTI > 0 {
		t.MaxBackEndDTI = cfg.Thresholds.MaxBackEndDTI
	}
	if cfg.Thresholds.MaxLTV > 0 {
		t.MaxLTV = cfg.Thresholds.MaxLTV
	}
	if cfg.Thresholds.MaxCreditUtilization > 0 {
		t.MaxCreditUtilization = cfg.Thresholds.MaxCreditUtilization
	}
	if cfg.Thresholds.MinSavingsToIncome > 0 {
		t.MinSavingsToIncome = cfg.Thresholds.MinSavingsToIncome
	}
	t.MinNetWorthToIncome = cfg.Thresholds.MinNetWorthToIncome
	return t
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.wsHub.Run()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Document analysis
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/analyze/complete", s.handleAnalyzeComplete)

		// Deterministic evaluation of an extracted record
		r.Post("/evaluate", s.handleEvaluate)

		// Policy thresholds
		r.Post("/policy/parse", s.handlePolicyParse)
		r.Get("/policy/context", s.handlePolicyContext)
		r.Post("/policy/assess", s.handlePolicyAssess)

		// Guideline indexing
		r.Post("/index", s.handleIndex)

		// Dashboard payload
		r.Get("/dashboard/{id}", s.handleDashboard)
		r.Get("/dashboard/{id}/report", s.handleDashboardReport)

		// API key status
		r.Get("/config/keys", s.handleConfigKeys)

		// WebSocket progress events
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AnalyzeResponse is returned by POST /api/v1/analyze.
type AnalyzeResponse struct {
	ID    string               `json:"id"`
	Files []models.FileSummary `json:"files"`
}

// CompleteResponse is returned by POST /api/v1/analyze/complete.
type CompleteResponse struct {
	ID     string                           `json:"id"`
	Files  []models.FileSummary             `json:"files"`
	Record *models.CanonicalFinancialRecord `json:"record"`
	Report *models.AnalysisReport           `json:"report"`
}

// PolicyParseRequest is the body for POST /api/v1/policy/parse.
type PolicyParseRequest struct {
	Snippets []string `json:"snippets"`
}

// PolicyAssessRequest is the body for POST /api/v1/policy/assess.
type PolicyAssessRequest struct {
	CreditScore int      `json:"credit_score"`
	DTI         float64  `json:"dti"`
	Snippets    []string `json:"snippets,omitempty"` // bypasses retrieval when set
}

// IndexRequest is the body for POST /api/v1/index.
type IndexRequest struct {
	Dir     string `json:"dir,omitempty"`
	FeedURL string `json:"feed_url,omitempty"`
	Reset   bool   `json:"reset,omitempty"`
}

// IndexResponse reports what was loaded into the vector store.
type IndexResponse struct {
	Documents int `json:"documents"`
	Chunks    int `json:"chunks"`
	Indexed   int `json:"indexed"` // total entries in the store after loading
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"status":            "ok",
			"version":           "dev",
			"retrieval_enabled": s.retriever != nil,
			"indexed_chunks":    s.indexedChunks(),
		},
	})
}

func (s *Server) indexedChunks() int {
	if s.store == nil {
		return 0
	}
	return s.store.Len()
}

// handleAnalyze extracts text from uploaded documents and returns per-file
// summaries without running the LLM pipeline.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	files, texts, err := s.readUploads(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	app := &models.Application{
		ID:        newAppID(),
		CreatedAt: time.Now(),
		Files:     files,
	}
	s.apps.put(app)
	_ = texts

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    AnalyzeResponse{ID: app.ID, Files: files},
	})
}

// handleAnalyzeComplete runs the full pipeline over uploaded documents.
// An optional credit_score form field enables the policy assessment.
func (s *Server) handleAnalyzeComplete(w http.ResponseWriter, r *http.Request) {
	files, texts, err := s.readUploads(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := agent.AnalyzeOptions{}
	if scoreStr := r.FormValue("credit_score"); scoreStr != "" {
		score, err := strconv.Atoi(scoreStr)
		if err != nil || score < 0 {
			writeError(w, http.StatusBadRequest, "credit_score must be a non-negative integer")
			return
		}
		opts.CreditScore = score
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	rep, record, err := s.orch.AnalyzeText(ctx, strings.Join(texts, "\n\n"), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	app := &models.Application{
		ID:        newAppID(),
		CreatedAt: time.Now(),
		Files:     files,
		Record:    record,
		Report:    rep,
	}
	s.apps.put(app)

	s.wsHub.Broadcast(WSMessage{
		Type:  "analysis_complete",
		AppID: app.ID,
		Data:  map[string]any{"id": app.ID, "degraded": rep.Degraded},
	})

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: CompleteResponse{
			ID:     app.ID,
			Files:  files,
			Record: record,
			Report: rep,
		},
	})
}

// handleEvaluate runs Clean + Evaluate over an already-extracted JSON record.
// Malformed field values degrade inside the pipeline; only a non-object body
// is the client's error.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var body any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	record, err := underwrite.CleanAny(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome := s.engine.Evaluate(record)
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: models.AnalysisReport{
			Ratios:      outcome.Ratios,
			RiskProfile: outcome.Profile,
			Degraded:    outcome.Degraded,
			Reason:      outcome.Reason,
		},
	})
}

func (s *Server) handlePolicyParse(w http.ResponseWriter, r *http.Request) {
	var req PolicyParseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Snippets) == 0 {
		writeError(w, http.StatusBadRequest, "snippets are required")
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    s.extractor.Extract(req.Snippets),
	})
}

func (s *Server) handlePolicyContext(w http.ResponseWriter, r *http.Request) {
	if s.retriever == nil {
		writeError(w, http.StatusServiceUnavailable, "policy retrieval is not configured")
		return
	}

	metric := r.URL.Query().Get("metric")
	if metric == "" {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("metric is required; one of: %s",
			strings.Join(retrieval.MetricNames(), ", ")))
		return
	}

	k := s.cfg.Retrieval.TopK
	if kStr := r.URL.Query().Get("k"); kStr != "" {
		if parsed, err := strconv.Atoi(kStr); err == nil && parsed > 0 {
			k = parsed
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	pc, err := s.retriever.PolicyContext(ctx, metric, k)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: pc})
}

// handlePolicyAssess relates a credit score and DTI to parsed policy
// thresholds. Snippets may be supplied directly; otherwise they come from
// the vector store's DTI queries.
func (s *Server) handlePolicyAssess(w http.ResponseWriter, r *http.Request) {
	var req PolicyAssessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CreditScore <= 0 {
		writeError(w, http.StatusBadRequest, "credit_score must be positive")
		return
	}

	snippets := req.Snippets
	if len(snippets) == 0 {
		if s.retriever == nil {
			writeError(w, http.StatusServiceUnavailable, "policy retrieval is not configured; supply snippets directly")
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()
		var err error
		snippets, err = s.retriever.DTISnippets(ctx)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	table := s.extractor.Extract(snippets)
	assessment := policy.Assess(table, req.DTI, req.CreditScore)

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"thresholds": table,
			"assessment": assessment,
		},
	})
}

// handleIndex loads a guideline folder or bulletin feed into the vector store.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "indexing requires an embedding key")
		return
	}

	var req IndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Dir == "" && req.FeedURL == "" {
		writeError(w, http.StatusBadRequest, "dir or feed_url is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	var docs []document.Document
	if req.Dir != "" {
		loaded, err := document.LoadDir(req.Dir)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		docs = append(docs, loaded...)
	}
	if req.FeedURL != "" {
		loaded, err := document.LoadFeed(ctx, req.FeedURL)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		docs = append(docs, loaded...)
	}

	chunks := document.Chunk(docs, s.cfg.Retrieval.ChunkSize, s.cfg.Retrieval.ChunkOverlap)

	if req.Reset {
		s.store.Reset()
	}
	if err := s.store.Add(ctx, chunks); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: IndexResponse{
			Documents: len(docs),
			Chunks:    len(chunks),
			Indexed:   s.store.Len(),
		},
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	app, ok := s.apps.get(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("application %s not found", id))
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    buildDashboard(app, s.engine.Thresholds()),
	})
}

// handleDashboardReport renders the stored analysis as a standalone HTML
// report, suitable for printing or archival.
func (s *Server) handleDashboardReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	app, ok := s.apps.get(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("application %s not found", id))
		return
	}

	html, err := report.GenerateHTML(app, s.engine.Thresholds(), report.DefaultReportConfig())
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}

func (s *Server) handleConfigKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    config.CheckAPIKeys(s.cfg),
	})
}

// ============================================================
// Upload handling
// ============================================================

// readUploads parses the multipart form and extracts text from each uploaded
// file. PDFs are validated and text-extracted; plain-text formats are read
// as-is. A file the pipeline cannot read fails the whole request: the caller
// sent it on purpose.
func (s *Server) readUploads(r *http.Request) ([]models.FileSummary, []string, error) {
	maxBytes := int64(s.cfg.API.MaxUploadMB) << 20
	if maxBytes <= 0 {
		maxBytes = 20 << 20
	}
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return nil, nil, fmt.Errorf("invalid multipart form: %w", err)
	}
	if r.MultipartForm == nil || len(r.MultipartForm.File["files"]) == 0 {
		return nil, nil, fmt.Errorf("at least one file is required under the 'files' field")
	}

	var summaries []models.FileSummary
	var texts []string
	for _, header := range r.MultipartForm.File["files"] {
		text, err := extractUpload(header)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", header.Filename, err)
		}
		summaries = append(summaries, models.FileSummary{
			FileName:   header.Filename,
			Characters: len(text),
			Preview:    preview(text),
		})
		texts = append(texts, text)
	}
	return summaries, texts, nil
}

func extractUpload(header *multipart.FileHeader) (string, error) {
	f, err := header.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}

	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".pdf":
		if err := document.Validate(content); err != nil {
			return "", err
		}
		return document.ExtractText(content)
	case ".txt", ".md":
		return string(content), nil
	default:
		return "", fmt.Errorf("unsupported file type (accepted: .pdf, .txt, .md)")
	}
}

func preview(text string) string {
	if len(text) <= previewChars {
		return text
	}
	return text[:previewChars]
}

// ============================================================
// Dashboard payload
// ============================================================

// DashboardRatio is a single ratio row with its policy limit and status.
type DashboardRatio struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Limit  float64 `json:"limit"`
	Status string  `json:"status"` // "ok" or "attention"
}

// DashboardPayload is the data contract behind the underwriting dashboard.
type DashboardPayload struct {
	ID              string                       `json:"id"`
	CreatedAt       time.Time                    `json:"created_at"`
	Files           []models.FileSummary         `json:"files,omitempty"`
	BorrowerSummary string                       `json:"borrower_summary,omitempty"`
	Ratios          []DashboardRatio             `json:"ratios,omitempty"`
	RiskFlags       []string                     `json:"risk_flags,omitempty"`
	Degraded        bool                         `json:"degraded"`
	Decision        *models.UnderwritingDecision `json:"decision,omitempty"`
	Assessment      *models.DTIAssessment        `json:"dti_assessment,omitempty"`
}

func buildDashboard(app *models.Application, t underwrite.Thresholds) DashboardPayload {
	payload := DashboardPayload{
		ID:        app.ID,
		CreatedAt: app.CreatedAt,
		Files:     app.Files,
	}

	rep := app.Report
	if rep == nil {
		return payload
	}

	payload.Degraded = rep.Degraded
	payload.RiskFlags = rep.RiskProfile.RiskFlags
	payload.Decision = rep.Decision
	payload.Assessment = rep.Assessment
	if rep.Decision != nil {
		payload.BorrowerSummary = rep.Decision.BorrowerSummary
	}

	payload.Ratios = []DashboardRatio{
		ratioRow("Gross DTI", rep.Ratios.DTI, t.MaxDTI, false),
		ratioRow("Back-End DTI", rep.Ratios.BackEndDTI, t.MaxBackEndDTI, false),
		ratioRow("LTV", rep.Ratios.LTV, t.MaxLTV, false),
		ratioRow("Credit Utilization", rep.Ratios.CreditUtilization, t.MaxCreditUtilization, false),
		ratioRow("Savings-to-Income", rep.Ratios.SavingsToIncome, t.MinSavingsToIncome, true),
		ratioRow("Net Worth-to-Income", rep.Ratios.NetWorthToIncome, t.MinNetWorthToIncome, true),
	}
	return payload
}

// ratioRow builds a dashboard row. floor selects floor semantics (value must
// stay at or above the limit) instead of ceiling semantics.
func ratioRow(name string, value, limit float64, floor bool) DashboardRatio {
	status := "ok"
	if floor {
		if value < limit {
			status = "attention"
		}
	} else if value > limit {
		status = "attention"
	}
	return DashboardRatio{Name: name, Value: value, Limit: limit, Status: status}
}

// ============================================================
// Application store
// ============================================================

// appStore is the in-memory application registry backing dashboard lookups.
type appStore struct {
	mu   sync.RWMutex
	apps map[string]*models.Application
}

func newAppStore() *appStore {
	return &appStore{apps: make(map[string]*models.Application)}
}

func (s *appStore) put(app *models.Application) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apps[app.ID] = app
}

func (s *appStore) get(id string) (*models.Application, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[id]
	return app, ok
}

func newAppID() string {
	return fmt.Sprintf("app-%d", time.Now().UnixNano())
}

// ============================================================
// Helpers
// ============================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
