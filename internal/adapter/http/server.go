package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/dragonfly/internal/domain"
	"github.com/couchcryptid/dragonfly/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Analyzer runs a burn-severity analysis to completion.
type Analyzer interface {
	Analyze(ctx context.Context, req pipeline.Request) (domain.AnalysisEvent, error)
}

// maxRequestBody bounds the analysis request, which carries at most an AOI polygon.
const maxRequestBody = 1 << 20

// Server exposes health, readiness, metrics, and analysis HTTP endpoints.
type Server struct {
	httpServer *http.Server
	analyzer   Analyzer
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// POST /v1/analyses routes.
func NewServer(addr string, analyzer Analyzer, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     mux,
			ReadTimeout: 10 * time.Second,
			// Analyses run synchronously and include scene downloads.
			WriteTimeout: 15 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		analyzer: analyzer,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /v1/analyses", s.handleAnalyze)

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

// analysisRequest is the POST /v1/analyses body. Exactly one of AOI and BBox is set.
type analysisRequest struct {
	AOI           json.RawMessage `json:"aoi,omitempty"`
	BBox          []float64       `json:"bbox,omitempty"`
	Pre           string          `json:"pre"`
	Post          string          `json:"post"`
	MaxCloudCover float64         `json:"max_cloud_cover,omitempty"`
}

func (ar analysisRequest) toRequest() (pipeline.Request, error) {
	var req pipeline.Request
	var err error
	switch {
	case len(ar.AOI) > 0 && len(ar.BBox) > 0:
		return req, errors.New("set either aoi or bbox, not both")
	case len(ar.AOI) > 0:
		req.AOI, err = domain.AOIFromGeoJSON(ar.AOI)
	case len(ar.BBox) == 4:
		req.AOI, err = domain.BoundingBox(ar.BBox[0], ar.BBox[1], ar.BBox[2], ar.BBox[3])
	default:
		return req, errors.New("aoi or a four-value bbox is required")
	}
	if err != nil {
		return req, err
	}
	if req.PreWindow, err = domain.ParseTimeWindow(ar.Pre); err != nil {
		return req, fmt.Errorf("pre: %w", err)
	}
	if req.PostWindow, err = domain.ParseTimeWindow(ar.Post); err != nil {
		return req, fmt.Errorf("post: %w", err)
	}
	if ar.MaxCloudCover < 0 || ar.MaxCloudCover > 100 {
		return req, errors.New("max_cloud_cover must be in [0, 100]")
	}
	req.MaxCloudCover = ar.MaxCloudCover
	return req, nil
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var body analysisRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	req, err := body.toRequest()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	event, err := s.analyzer.Analyze(r.Context(), req)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("analysis failed", "error", err)
		} else {
			s.logger.Warn("analysis rejected", "error", err)
		}
		writeError(w, status, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, event)
}

// statusFor maps analysis errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNoDataFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrMissingAsset):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrTransferFailure):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
}
