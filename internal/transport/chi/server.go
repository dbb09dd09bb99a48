// Package chi wires the RCI service onto a go-chi router: four JSON routes
// plus a Prometheus /metrics endpoint, with sentinel errors mapped to HTTP
// status codes the way the envelope in spec §6/§7 describes.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rci/internal/domain"
)

const maxTopK = 50

// Service is the subset of usecase/rci.Service the HTTP layer drives.
type Service interface {
	Sync(ctx context.Context, req domain.SyncRequest) (domain.SyncResponse, error)
	Search(ctx context.Context, req domain.SearchRequest) (domain.SearchResponse, error)
	Status(ctx context.Context) (domain.Status, error)
	ClearCache()
}

// Server implements the HTTP surface over a Service.
type Server struct {
	svc    Service
	logger *zap.Logger
}

// NewServer builds a Server. logger defaults to zap.NewNop() if nil.
func NewServer(svc Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{svc: svc, logger: logger}
}

// envelope is the {success, data|error} wrapper every route responds with.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Details string `json:"details,omitempty"`
	Code    string `json:"code,omitempty"`
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeFailure(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, envelope{Success: false, Error: message, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// searchRequestBody mirrors spec §6.1's POST /rag/search body.
type searchRequestBody struct {
	Query     string   `json:"query"`
	TopK      int      `json:"topK"`
	Threshold float64  `json:"threshold"`
	Filters   *filters `json:"filters"`
}

type filters struct {
	PackageName   string   `json:"packageName"`
	ComponentName string   `json:"componentName"`
	Tags          []string `json:"tags"`
	Version       string   `json:"version"`
}

// Search handles POST /rag/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var body searchRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeFailure(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body: "+err.Error())
		return
	}

	if body.Query == "" {
		writeFailure(w, http.StatusBadRequest, "BAD_REQUEST", "query missing")
		return
	}
	if body.TopK != 0 && (body.TopK < 1 || body.TopK > maxTopK) {
		writeFailure(w, http.StatusBadRequest, "BAD_REQUEST", "topK out of range")
		return
	}
	if body.Threshold != 0 && (body.Threshold < 0 || body.Threshold > 1) {
		writeFailure(w, http.StatusBadRequest, "BAD_REQUEST", "threshold out of range")
		return
	}

	req := domain.SearchRequest{Query: body.Query, TopK: body.TopK, Threshold: body.Threshold}
	if body.Filters != nil {
		req.Filters = domain.Filters{
			PackageName:   body.Filters.PackageName,
			ComponentName: body.Filters.ComponentName,
			Tags:          body.Filters.Tags,
			Version:       body.Filters.Version,
		}
	}

	resp, err := s.svc.Search(r.Context(), req)
	if err != nil {
		s.handleServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, resp)
}

// syncRequestBody mirrors spec §6.2's POST /rag/sync body.
type syncRequestBody struct {
	SourcePath   string   `json:"sourcePath"`
	ForceReindex bool     `json:"forceReindex"`
	Packages     []string `json:"packages"`
}

// Sync handles POST /rag/sync.
func (s *Server) Sync(w http.ResponseWriter, r *http.Request) {
	var body syncRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeFailure(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body: "+err.Error())
		return
	}
	if body.SourcePath == "" {
		writeFailure(w, http.StatusBadRequest, "BAD_REQUEST", "sourcePath missing")
		return
	}

	resp, err := s.svc.Sync(r.Context(), domain.SyncRequest{
		SourcePath:   body.SourcePath,
		ForceReindex: body.ForceReindex,
		Packages:     body.Packages,
	})
	if err != nil {
		s.handleServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, resp)
}

// Status handles GET /rag/status.
func (s *Server) Status(w http.ResponseWriter, r *http.Request) {
	status, err := s.svc.Status(r.Context())
	if err != nil {
		s.handleServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, status)
}

// ClearCache handles POST /rag/cache/clear.
func (s *Server) ClearCache(w http.ResponseWriter, r *http.Request) {
	s.svc.ClearCache()
	writeData(w, http.StatusOK, map[string]bool{"cleared": true})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// handleServiceError maps a sentinel error from the core to an HTTP status
// and stable code per spec §7.
func (s *Server) handleServiceError(w http.ResponseWriter, err error) {
	s.logger.Warn("service error", zap.Error(err))

	switch {
	case errors.Is(err, domain.ErrEmbeddingAuthFailed):
		writeFailure(w, http.StatusUnauthorized, "AUTH_FAILED", "authentication failure")
	case errors.Is(err, domain.ErrEmbeddingQuotaExceeded):
		writeFailure(w, http.StatusTooManyRequests, "QUOTA_EXCEEDED", "quota exceeded")
	case errors.Is(err, domain.ErrCancelled):
		writeFailure(w, http.StatusServiceUnavailable, "CANCELLED", "request cancelled")
	case errors.Is(err, domain.ErrEmbeddingFailed):
		writeFailure(w, http.StatusServiceUnavailable, "EMBEDDING_ERROR", "embedding provider unavailable")
	case errors.Is(err, domain.ErrVectorStoreFailed):
		writeFailure(w, http.StatusInternalServerError, "VECTOR_STORE_ERROR", "vector store error")
	case errors.Is(err, domain.ErrSearchFailed):
		writeFailure(w, http.StatusInternalServerError, "SEARCH_ERROR", "search error")
	case errors.Is(err, domain.ErrInitFailed):
		writeFailure(w, http.StatusServiceUnavailable, "INIT_ERROR", "index unavailable")
	case errors.Is(err, domain.ErrComponentParseFailed):
		writeFailure(w, http.StatusNotFound, "COMPONENT_PARSE_ERROR", "source path not found")
	default:
		s.logger.Error("internal error", zap.Error(err))
		writeFailure(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
	}
}
