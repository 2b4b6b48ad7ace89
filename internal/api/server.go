package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"snapstore/internal/config"
	"snapstore/internal/snap"
)

// maxBodyBytes caps snapshot request bodies. A listing of tens of thousands
// of files fits comfortably.
const maxBodyBytes = 32 << 20

// Snapshotter is the part of snap.SnapshotService the handlers need.
type Snapshotter interface {
	CreateRootSnapshot(ctx context.Context, projectName string, files []snap.FileEntry) (int64, error)
	CreateChildSnapshot(ctx context.Context, parentID int64, description string, files []snap.FileEntry) (int64, error)
	ListVersions(ctx context.Context) ([]*snap.VersionSummary, error)
	GetVersion(ctx context.Context, versionID int64) (*snap.VersionSummary, error)
	ListVersionFiles(ctx context.Context, versionID int64) ([]*snap.VersionFile, error)
}

// Server represents the HTTP server
type Server struct {
	*http.Server
	router   chi.Router
	svc      Snapshotter
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics
}

// NewServer creates a new HTTP server with all routes configured
func NewServer(cfg config.ServerConfig, svc Snapshotter, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := chi.NewRouter()
	reg := prometheus.NewRegistry()

	s := &Server{
		Server: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
		router:   r,
		svc:      svc,
		logger:   logger,
		registry: reg,
		metrics:  newMetrics(reg),
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	s.setupRoutes()

	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.SetHeader("Content-Type", "application/json"))

		r.Get("/health", s.handleHealth)

		r.Post("/snapshot/initial", s.handleCreateInitialSnapshot)
		r.Post("/snapshot/create", s.handleCreateSubsequentSnapshot)

		r.Get("/versions", s.handleListVersions)
		r.Get("/versions/{versionID}", s.handleGetVersion)
		r.Get("/versions/{versionID}/files", s.handleListVersionFiles)
	})

	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
}

// instrument records request latency labelled by the matched route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		s.metrics.requestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(code)).
			Observe(time.Since(start).Seconds())
	})
}

// Serve listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.Addr)
		errCh <- s.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}
