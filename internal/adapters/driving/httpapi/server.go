package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/resultq/internal/core/domain"
	"github.com/custodia-labs/resultq/internal/core/ports/driving"
	"github.com/custodia-labs/resultq/internal/logger"
)

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("httpapi: search service is required")

// Server serves the result API.
type Server struct {
	search   driving.SearchService
	results  driving.ResultService
	gatherer prometheus.Gatherer
	perPage  int
	router   *chi.Mux
}

// NewServer creates a server. results may be nil, in which case the
// single-result routes answer 501.
func NewServer(search driving.SearchService, results driving.ResultService) (*Server, error) {
	if search == nil {
		return nil, ErrMissingSearchService
	}
	s := &Server{
		search:  search,
		results: results,
		perPage: domain.DefaultPerPage,
	}
	s.routes()
	return s, nil
}

// SetPerPage sets the page size used when a request has no per_page.
func (s *Server) SetPerPage(n int) {
	if n > 0 {
		s.perPage = n
	}
}

// SetGatherer enables GET /metrics backed by g.
func (s *Server) SetGatherer(g prometheus.Gatherer) {
	s.gatherer = g
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Route("/api/results", func(r chi.Router) {
		r.Get("/", s.handleSearch)
		r.Get("/{id}", s.handleGetResult)
		r.Get("/{id}/metadata", s.handleMetadata)
	})
	r.Get("/metrics", s.handleMetrics)

	s.router = r
}

// handleMetrics resolves the gatherer per request so SetGatherer can be
// called after NewServer.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.gatherer == nil {
		writeError(w, http.StatusNotFound, errors.New("metrics disabled"))
		return
	}
	promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Info("Listening on %s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("serving http: %w", err)
	}
	return nil
}

// requestLogger logs each request through the "http" component logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		log := logger.Component("http")
		log.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
