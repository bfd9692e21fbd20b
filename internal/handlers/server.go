// Package handlers exposes the inventory over HTTP.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"netinventory/internal/devices"
	"netinventory/internal/importer"
	"netinventory/internal/logging"
	"netinventory/internal/metrics"
	"netinventory/internal/models"
)

// Store is the read side of storage used directly by handlers.
type Store interface {
	ListDevices(ctx context.Context) ([]models.Device, error)
	CountDevices(ctx context.Context) (int, error)
	ListActivity(ctx context.Context, since time.Time, limit int) ([]models.ActivityLog, error)
	Backup(ctx context.Context, path string) error
	Ping(ctx context.Context) error
}

// Options configures a Server.
type Options struct {
	Store          Store
	Devices        *devices.Service
	Importer       *importer.Pipeline
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	MaxUploadSize  int64
	RequestTimeout time.Duration
}

// Server routes HTTP requests to the inventory services.
type Server struct {
	store         Store
	devices       *devices.Service
	importer      *importer.Pipeline
	logger        *slog.Logger
	metrics       *metrics.Metrics
	maxUploadSize int64
	router        *chi.Mux
}

// NewServer builds the router with all middleware and routes.
func NewServer(opts Options) *Server {
	s := &Server{
		store:         opts.Store,
		devices:       opts.Devices,
		importer:      opts.Importer,
		logger:        opts.Logger,
		metrics:       opts.Metrics,
		maxUploadSize: opts.MaxUploadSize,
		router:        chi.NewRouter(),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.maxUploadSize <= 0 {
		s.maxUploadSize = 32 << 20
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))
	s.router.Use(middleware.Timeout(timeout))

	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/devices", s.handleSearchDevices)
		r.Post("/devices", s.handleCreateDevice)
		r.Get("/devices/{id}", s.handleGetDevice)
		r.Get("/logs", s.handleListLogs)
	})

	s.router.Post("/upload_excel", s.handleUploadExcel)

	s.router.Get("/export/csv", s.handleExportCSV)
	s.router.Get("/export/excel", s.handleExportExcel)

	s.router.Get("/admin/backup", s.handleBackup)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// unmatchedRoute labels metrics for requests no route pattern matched.
const unmatchedRoute = "unmatched"

// requestLogger logs one line per request and records HTTP metrics.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)

		route := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		s.metrics.ObserveHTTP(r.Method, route, status, duration)

		logging.FromContext(r.Context(), s.logger).Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration_ms", duration.Milliseconds(),
			"ip", r.RemoteAddr,
		)
	})
}
