// Package api provides the HTTP API server and handlers for marlow.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marlowai/marlow/internal/service"
	"github.com/marlowai/marlow/internal/store"
)

// Services groups the business services used by the API server.
type Services struct {
	Library        *service.LibraryService
	Recommendation *service.RecommendationService
	Settings       *service.SettingsService
	BookSearch     *service.BookSearchService
	Search         *service.SearchService
}

// Options configures the HTTP surface.
type Options struct {
	Version string
	// CORSOrigins lists allowed browser origins. Empty disables CORS headers.
	CORSOrigins []string
	// GenerateRateLimit caps generation requests per minute per client IP.
	// Zero disables the limit.
	GenerateRateLimit int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	repo     store.Repository
	services *Services
	opts     Options
	router   *chi.Mux
	api      huma.API
	logger   *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(repo store.Repository, services *Services, opts Options, logger *slog.Logger) *Server {
	if opts.Version == "" {
		opts.Version = "dev"
	}

	router := chi.NewRouter()
	s := &Server{
		repo:     repo,
		services: services,
		opts:     opts,
		router:   router,
		logger:   logger,
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("Marlow API", opts.Version)
	humaConfig.Info.Description = "Reading list and book recommendation service"
	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s.registerRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for tests.
func (s *Server) API() huma.API {
	return s.api
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(markRawPath)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	if len(s.opts.CORSOrigins) > 0 {
		s.router.Use(corsHandler(s.opts.CORSOrigins))
	}
	if s.opts.GenerateRateLimit > 0 {
		s.router.Use(generationRateLimit(s.opts.GenerateRateLimit, s.logger))
	}
}

func (s *Server) registerRoutes() {
	s.router.Handle("/metrics", promhttp.Handler())

	s.registerHealthRoutes()
	s.registerBookRoutes()
	s.registerSearchRoutes()
	s.registerRecommendationRoutes()
	s.registerGenerationRoutes()
	s.registerSettingsRoutes()
}
