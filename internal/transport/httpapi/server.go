package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pagedex-io/pagedex/internal/domain"
	healthuc "github.com/pagedex-io/pagedex/internal/usecase/health"
)

// Searcher answers queries and reports collection stats.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error)
	CollectionStats(ctx context.Context) (domain.CollectionStats, error)
}

// IndexBuilder rebuilds the chunk collection from the document directory.
type IndexBuilder interface {
	BuildIndex(ctx context.Context) domain.BuildReport
}

// HealthChecker probes the service dependencies.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

const (
	defaultK = 5
	maxK     = 20
)

// Server exposes the search API over HTTP.
type Server struct {
	search  Searcher
	indexer IndexBuilder
	health  HealthChecker
	logger  *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(search Searcher, indexer IndexBuilder, health HealthChecker, logger *zap.Logger) *Server {
	return &Server{
		search:  search,
		indexer: indexer,
		health:  health,
		logger:  logger,
	}
}

// Register mounts all API endpoints on the given router.
func (s *Server) Register(r chi.Router) {
	r.Post("/search", s.Search)
	r.Get("/collection/stats", s.CollectionStats)
	r.Post("/index/build", s.BuildIndex)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Search handles POST /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "Query is required")
		return
	}
	// Ноль трактуем как «не задано», как и отсутствие поля.
	if req.K == 0 {
		req.K = defaultK
	}
	if req.K < 1 || req.K > maxK {
		writeError(w, http.StatusBadRequest, "k must be between 1 and 20")
		return
	}

	results, err := s.search.Search(r.Context(), req.Query, req.K)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Search error: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, searchResponseFrom(req.Query, results))
}

// CollectionStats handles GET /collection/stats.
func (s *Server) CollectionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.search.CollectionStats(r.Context())
	if err != nil {
		s.logger.Error("stats failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error retrieving stats: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, statsResponseFrom(stats))
}

// BuildIndex handles POST /index/build. A failed build is still a 200:
// the report carries the outcome either way.
func (s *Server) BuildIndex(w http.ResponseWriter, r *http.Request) {
	report := s.indexer.BuildIndex(r.Context())
	writeJSON(w, http.StatusOK, buildReportResponseFrom(report))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponseFrom(report))
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
