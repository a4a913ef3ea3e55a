package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/firesight-detection-service/internal/domain"
)

// ResultsProvider supplies the current analysis of the observation window.
type ResultsProvider interface {
	Analysis(ctx context.Context) (domain.AnalysisResult, error)
	ObservationCounts() map[string]int
}

// Server exposes health, readiness, metrics, and the read-only results API.
type Server struct {
	httpServer *http.Server
	results    ResultsProvider
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /api/v1 routes. A nil stream handler leaves /api/v1/stream unregistered.
func NewServer(addr string, ready sharedobs.ReadinessChecker, results ResultsProvider, stream http.Handler, logger *slog.Logger) *Server {
	router := mux.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		results: results,
		logger:  logger,
	}

	router.HandleFunc("/healthz", sharedobs.LivenessHandler()).Methods(http.MethodGet)
	router.HandleFunc("/readyz", sharedobs.ReadinessHandler(ready)).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/alerts", s.handleAlerts).Methods(http.MethodGet)
	api.HandleFunc("/alerts/types", handleAlertTypes).Methods(http.MethodGet)
	api.HandleFunc("/predictions", s.handlePredictions).Methods(http.MethodGet)
	api.HandleFunc("/resources", s.handleResources).Methods(http.MethodGet)
	api.HandleFunc("/summary", s.handleSummary).Methods(http.MethodGet)
	api.HandleFunc("/analysis", s.handleAnalysis).Methods(http.MethodGet)
	api.HandleFunc("/incidents", s.handleIncidents).Methods(http.MethodGet)
	if stream != nil {
		api.Handle("/stream", stream).Methods(http.MethodGet)
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// withAnalysis loads the current analysis and passes it to render, answering
// 500 when it cannot be computed.
func (s *Server) withAnalysis(w http.ResponseWriter, r *http.Request, render func(domain.AnalysisResult) any) {
	result, err := s.results.Analysis(r.Context())
	if err != nil {
		s.logger.Error("analysis failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "analysis unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, render(result))
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	s.withAnalysis(w, r, func(res domain.AnalysisResult) any { return res.Alerts })
}

func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	s.withAnalysis(w, r, func(res domain.AnalysisResult) any { return res.Predictions })
}

func (s *Server) handleResources(w http.ResponseWriter, r *http.Request) {
	s.withAnalysis(w, r, func(res domain.AnalysisResult) any { return res.Resources })
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	s.withAnalysis(w, r, func(res domain.AnalysisResult) any { return res })
}

func (s *Server) handleIncidents(w http.ResponseWriter, r *http.Request) {
	s.withAnalysis(w, r, func(res domain.AnalysisResult) any {
		return domain.BuildIncidentReports(res.Alerts, res.Predictions, res.Resources)
	})
}

// Summary is the dashboard overview of the current window.
type Summary struct {
	Timestamp         string          `json:"timestamp"`
	TotalObservations int             `json:"total_observations"`
	CountsBySource    map[string]int  `json:"counts_by_source"`
	ThreatLevel       domain.Severity `json:"threat_level"`
	AlertCount        int             `json:"alert_count"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	counts := s.results.ObservationCounts()
	s.withAnalysis(w, r, func(res domain.AnalysisResult) any {
		total := 0
		for _, n := range counts {
			total += n
		}
		return Summary{
			Timestamp:         res.GeneratedAt.Format(time.RFC3339),
			TotalObservations: total,
			CountsBySource:    counts,
			ThreatLevel:       domain.ThreatLevel(res.Alerts),
			AlertCount:        len(res.Alerts),
		}
	})
}

// AlertCatalogue lists the values clients can expect in alert payloads.
type AlertCatalogue struct {
	Types      []string          `json:"types"`
	Severities []domain.Severity `json:"severities"`
}

func handleAlertTypes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, AlertCatalogue{
		Types:      []string{domain.DetectionVisual, domain.DetectionThermal, domain.DetectionSensor},
		Severities: []domain.Severity{domain.SeverityLow, domain.SeverityMedium, domain.SeverityHigh},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
