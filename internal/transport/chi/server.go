// Package chi exposes the search service over HTTP. Search endpoints always
// answer 200 with an items list; backend failures are indistinguishable from
// "no results" by design, with observability carried by logs and metrics.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/arsomjin/kbnsearch/internal/db"
	"github.com/arsomjin/kbnsearch/internal/domain/search/result"
	healthuc "github.com/arsomjin/kbnsearch/internal/usecase/health"
	indexinguc "github.com/arsomjin/kbnsearch/internal/usecase/indexing"
	searchuc "github.com/arsomjin/kbnsearch/internal/usecase/search"
	selectoruc "github.com/arsomjin/kbnsearch/internal/usecase/selector"
)

// Error codes returned in JSON error bodies.
const (
	codeNotFound     = "not_found"
	codeUnauthorized = "unauthorized"
	codeInternal     = "internal_error"
)

// Server wires the usecases behind the HTTP API.
type Server struct {
	search    *searchuc.Service
	selectors map[string]*selectoruc.Service
	indexing  *indexinguc.Service
	health    *healthuc.Service
	logger    *zap.Logger
}

// NewServer creates an HTTP API server. selectors maps the {kind} path
// segment of the options endpoint to its selector service.
func NewServer(
	search *searchuc.Service,
	selectors map[string]*selectoruc.Service,
	indexing *indexinguc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	return &Server{
		search:    search,
		selectors: selectors,
		indexing:  indexing,
		health:    health,
		logger:    logger,
	}
}

// Routes registers the API endpoints on a fresh router. Middleware is
// applied by the composition root.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/search/accounting", s.searchAccounting)
	r.Get("/search/sale", s.searchSale)
	r.Get("/options/{kind}", s.options)
	r.Post("/collections/{collection}/documents/{id}/keywords", s.indexDocument)
	r.Post("/collections/{collection}/reindex", s.reindexMissing)
	r.Get("/health", s.healthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

type searchResponse struct {
	Items []result.Result `json:"items"`
}

// searchAccounting handles GET /search/accounting?q=.
func (s *Server) searchAccounting(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	items := s.search.SearchAccounting(r.Context(), q, AccessFromContext(r.Context()))
	writeJSON(w, http.StatusOK, searchResponse{Items: items})
}

// searchSale handles GET /search/sale?q=&category=.
func (s *Server) searchSale(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	category := r.URL.Query().Get("category")
	items := s.search.SearchSale(r.Context(), q, category, AccessFromContext(r.Context()))
	writeJSON(w, http.StatusOK, searchResponse{Items: items})
}

type optionsResponse struct {
	Options []selectoruc.Option `json:"options"`
}

// options handles GET /options/{kind}?q=. A stale fetch answers 204 so the
// client keeps the options of the newer request.
func (s *Server) options(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	sel, ok := s.selectors[kind]
	if !ok {
		writeError(w, http.StatusNotFound, codeNotFound, "unknown selector kind "+kind)
		return
	}

	q := r.URL.Query().Get("q")
	opts, err := sel.Fetch(r.Context(), q, AccessFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, selectoruc.ErrStale) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		s.logger.Error("selector fetch failed", zap.String("kind", kind), zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternal, "selector fetch failed")
		return
	}
	writeJSON(w, http.StatusOK, optionsResponse{Options: opts})
}

type keywordsResponse struct {
	Keywords []string `json:"keywords"`
}

// indexDocument handles POST /collections/{collection}/documents/{id}/keywords.
func (s *Server) indexDocument(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	id := chi.URLParam(r, "id")

	kws, err := s.indexing.Index(r.Context(), collection, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, codeNotFound, "document not found")
			return
		}
		if isUnknownCollection(s.indexing, collection) {
			writeError(w, http.StatusNotFound, codeNotFound, "unknown collection "+collection)
			return
		}
		s.logger.Error("keyword indexing failed",
			zap.String("collection", collection),
			zap.String("id", id),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, codeInternal, "keyword indexing failed")
		return
	}
	writeJSON(w, http.StatusOK, keywordsResponse{Keywords: kws})
}

type reindexResponse struct {
	Indexed int `json:"indexed"`
}

// reindexMissing handles POST /collections/{collection}/reindex, indexing
// one batch of documents that lack a keyword array.
func (s *Server) reindexMissing(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")

	n, err := s.indexing.ReindexMissing(r.Context(), collection)
	if err != nil {
		if isUnknownCollection(s.indexing, collection) {
			writeError(w, http.StatusNotFound, codeNotFound, "unknown collection "+collection)
			return
		}
		s.logger.Error("reindex failed", zap.String("collection", collection), zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternal, "reindex failed")
		return
	}
	writeJSON(w, http.StatusOK, reindexResponse{Indexed: n})
}

// healthCheck handles GET /health.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

func isUnknownCollection(idx *indexinguc.Service, collection string) bool {
	for _, name := range idx.Collections() {
		if name == collection {
			return false
		}
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}
