// Package server provides the HTTP API over a skill library. It serves
// catalog-backed listings, document detail, rendered prompt envelopes,
// full-text search, and on-demand lint reports as JSON. The server serves
// the library to external consumers; it is not an agent and calls no model.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/skillet-cli/skillet/pkg/catalog"
	"github.com/skillet-cli/skillet/pkg/lint"
	"github.com/skillet-cli/skillet/pkg/logger"
	"github.com/skillet-cli/skillet/pkg/registry"
	"github.com/skillet-cli/skillet/pkg/render"
	"github.com/skillet-cli/skillet/pkg/search"
	"github.com/skillet-cli/skillet/pkg/telemetry"
)

const shutdownTimeout = 30 * time.Second

var tracer = telemetry.Tracer("skillet.server")

// Config holds the server configuration
type Config struct {
	Host string
	Port int
}

// Validate validates the server configuration
func (c *Config) Validate() error {
	if c.Host == "" {
		return errors.New("host cannot be empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	return nil
}

// Server serves the skill library over HTTP
type Server struct {
	router   *mux.Router
	config   *Config
	registry *registry.Registry
	catalog  *catalog.Store
	index    *search.Index
	renderer *render.Renderer
	linter   *lint.Linter
	server   *http.Server
}

// Option is a function that configures a Server
type Option func(*Server)

// WithCatalog backs the list and category endpoints with the catalog
// store instead of the in-memory registry
func WithCatalog(store *catalog.Store) Option {
	return func(s *Server) {
		s.catalog = store
	}
}

// WithSearchIndex enables the /api/search endpoint
func WithSearchIndex(index *search.Index) Option {
	return func(s *Server) {
		s.index = index
	}
}

// New creates a server over the given registry. Prompt rendering runs with
// bash splicing disabled: HTTP callers are not the operator.
func New(config *Config, reg *registry.Registry, opts ...Option) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid server configuration")
	}

	linter, err := lint.New()
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:   mux.NewRouter(),
		config:   config,
		registry: reg,
		renderer: render.New(render.WithBashDisabled()),
		linter:   linter,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealthz).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/skills", s.handleListSkills).Methods("GET")
	api.HandleFunc("/skills/{category}/{slug}", s.handleGetSkill).Methods("GET")
	api.HandleFunc("/skills/{category}/{slug}/prompt", s.handleGetPrompt).Methods("GET")
	api.HandleFunc("/categories", s.handleCategories).Methods("GET")
	api.HandleFunc("/search", s.handleSearch).Methods("GET")
	api.HandleFunc("/lint", s.handleLint).Methods("GET")

	s.router.Use(s.tracingMiddleware)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.corsMiddleware)
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeErrorResponse(w, http.StatusNotFound, "not found", nil)
	})
}

// Handler returns the HTTP handler, used directly by tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the server until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:    address,
		Handler: s.router,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.G(ctx).WithError(err).Error("server error")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// Stop closes the server immediately
func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}

func (s *Server) tracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "http.request")
		defer span.End()

		span.SetAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.path", r.URL.Path),
		)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		logger.G(r.Context()).WithFields(map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration":    time.Since(start),
			"remote_addr": r.RemoteAddr,
		}).Info("HTTP request")
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
