// Package api provides the HTTP API for the docket server.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/courtwright/docket/internal/api/handlers"
	"github.com/courtwright/docket/internal/api/middleware"
	"github.com/courtwright/docket/internal/store"
)

// Config holds configuration for the API router.
type Config struct {
	// AllowedOrigins for CORS. Empty means all origins are allowed.
	AllowedOrigins []string
	// RateLimitRequests is the number of requests allowed per period.
	RateLimitRequests int64
	// RateLimitPeriod is the duration string for rate limiting (e.g. "1m", "1h").
	RateLimitPeriod string
	// Version information for the version endpoint.
	Version   string
	Commit    string
	BuildDate string
}

// DefaultConfig returns a Config with sensible defaults for development.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins:    []string{},
		RateLimitRequests: 100,
		RateLimitPeriod:   "1m",
		Version:           "dev",
		Commit:            "unknown",
		BuildDate:         "unknown",
	}
}

// Router wraps a Gin engine with configured middleware and routes.
type Router struct {
	Engine *gin.Engine
	logger zerolog.Logger
	store  store.Store
}

// NewRouter creates a new Router with the given dependencies.
func NewRouter(cfg Config, st store.Store, logger zerolog.Logger) (*Router, error) {
	r := &Router{
		Engine: gin.New(),
		logger: logger.With().Str("component", "router").Logger(),
		store:  st,
	}

	// Global middleware
	r.Engine.Use(gin.Recovery())
	r.Engine.Use(middleware.RequestLogger(logger))
	r.Engine.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Engine.Use(middleware.Metrics())

	// Rate limiting
	rateLimiter, err := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitPeriod)
	if err != nil {
		return nil, err
	}
	r.Engine.Use(rateLimiter)

	// Health check endpoint
	healthHandler := handlers.NewHealthHandler(st, logger)
	healthHandler.RegisterPublicRoutes(r.Engine)

	// Version endpoint
	versionHandler := handlers.NewVersionHandler(cfg.Version, cfg.Commit, cfg.BuildDate, logger)
	versionHandler.RegisterPublicRoutes(r.Engine)

	// Prometheus metrics endpoint, with docket collection sizes
	registerCollectionSizes(st, logger)
	r.Engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Case scheduling and archive endpoints
	casesHandler := handlers.NewCasesHandler(st, logger)
	casesHandler.RegisterRoutes(r.Engine)

	return r, nil
}

// registerCollectionSizes registers the docket size gauges once per process.
// Re-registration (tests building multiple routers) is tolerated.
func registerCollectionSizes(st store.Store, logger zerolog.Logger) {
	c := newSizeCollector(st, logger)
	if err := prometheus.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			logger.Warn().Err(err).Msg("failed to register docket size collector")
		}
	}
}
