// Package api provides the HTTP API for the species dashboard.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/speciesdash/speciesdash/internal/api/handler"
	"github.com/speciesdash/speciesdash/internal/api/middleware"
	"github.com/speciesdash/speciesdash/internal/api/models"
	"github.com/speciesdash/speciesdash/internal/api/response"
	"github.com/speciesdash/speciesdash/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version        string
	BuildTime      string
	Logger         zerolog.Logger
	Metrics        *middleware.Metrics
	SpeciesService handler.SpeciesService
	Registry       *resilience.Registry

	// AllowedOrigins for CORS. Empty allows any origin.
	AllowedOrigins []string

	// RequestsPerMinute per client IP. Zero disables limiting.
	RequestsPerMinute int

	RequireTLS bool
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID) // Generate/propagate request ID first
	r.Use(middleware.Tracing()) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.SecurityHeaders)                      // Security headers
	r.Use(middleware.RequireTLS(cfg.RequireTLS))           // TLS enforcement behind a proxy
	r.Use(middleware.ContentTypeJSON)                      // JSON content type
	r.Use(middleware.RateLimitByIP(cfg.RequestsPerMinute)) // Per-IP limit, off when zero

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Registry)
	speciesHandler := handler.NewSpeciesHandler(cfg.SpeciesService, cfg.Logger)
	mapHandler := handler.NewMapHandler(cfg.SpeciesService, cfg.Logger)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, r, "resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, r, models.NewMethodNotAllowed(
			middleware.GetRequestID(r.Context()),
			r.Method+" is not supported on "+r.URL.Path,
		))
	})

	r.Get("/", opsHandler.Root)

	r.Route("/api", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		r.Route("/species", func(r chi.Router) {
			r.Get("/search", speciesHandler.Search)
			r.Get("/{species_key}/timeline", speciesHandler.Timeline)
		})
		r.Get("/popular-species", speciesHandler.PopularSpecies)

		// Tile handlers replace the JSON content type with image/png.
		r.Route("/map", func(r chi.Router) {
			r.Get("/tile/{z}/{x}/{y}", mapHandler.BaseTile)
			r.Get("/{z}/{x}/{y}", mapHandler.DensityTile)
		})
	})

	return r
}
