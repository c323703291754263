package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-storefront/internal/health"
	"github.com/noah-isme/toko-storefront/internal/obs"
	"github.com/noah-isme/toko-storefront/internal/ratelimit"
	"github.com/noah-isme/toko-storefront/internal/security"
	"github.com/noah-isme/toko-storefront/internal/session"
)

type routerDeps struct {
	Logger         zerolog.Logger
	Metrics        *obs.HTTPMetrics
	MetricsHandler http.Handler
	Tracing        bool
	AllowedOrigins []string
	Health         health.Handler
	Session        *session.Session
	Limiter        ratelimit.Handler
	Headers        security.Headers
	MaxBodyBytes   int64
}

// newAdminRouter serves metrics, health probes and the JSON mirror of the
// storefront menu.
func newAdminRouter(deps routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(deps.Headers.Middleware)
	if deps.Tracing {
		r.Use(obs.TracingMiddleware)
	}
	if deps.Metrics != nil {
		r.Use(obs.HTTPObs{Metrics: deps.Metrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: deps.Logger}.Middleware)

	metricsHandler := deps.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Handle("/metrics", metricsHandler)
	r.Get("/health/live", deps.Health.Live)
	r.Get("/health/ready", deps.Health.Ready)

	if deps.Session != nil {
		storefront := &session.Handler{Session: deps.Session}
		r.Route("/api", func(api chi.Router) {
			api.Use(cors.Handler(cors.Options{
				AllowedOrigins: allowedOrigins(deps.AllowedOrigins),
				AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
				AllowedHeaders: []string{"Accept", "Content-Type"},
				MaxAge:         300,
			}))
			storefront.Routes(api, deps.Limiter.Middleware, security.BodyLimit{Max: deps.MaxBodyBytes}.Middleware)
		})
	}
	return r
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
