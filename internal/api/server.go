package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ryanbastic/go-cardsheet/internal/circuitbreaker"
	"github.com/ryanbastic/go-cardsheet/internal/metrics"
	"github.com/ryanbastic/go-cardsheet/internal/trigger"
	"github.com/ryanbastic/go-cardsheet/internal/workspace"
)

// Options carries the optional dependencies of the health and plugin routes.
type Options struct {
	// Backends are pinged by the readiness probe.
	Backends map[string]Pinger
	// Breakers are reported, not enforced, by the readiness probe. Deleting
	// the last plugin on an endpoint drops its breaker.
	Breakers *circuitbreaker.Group
}

// NewServer creates an HTTP server with all routes configured.
func NewServer(logger *slog.Logger, svc *workspace.Service, plugins *trigger.PluginRegistry, opts Options) http.Handler {
	mux := chi.NewRouter()

	mux.Use(RequestID)
	mux.Use(Logging(logger))
	mux.Use(Recovery(logger))
	mux.Use(metrics.Metrics)

	health := NewHealthHandler(opts.Backends, logger).WithBreakers(opts.Breakers)
	mux.Get("/v1/livez", health.Livez)
	mux.Get("/v1/readyz", health.Readyz)
	mux.Get("/v1/health", health.Readyz)
	mux.Handle("/metrics", promhttp.Handler())

	api := humachi.New(mux, huma.DefaultConfig("cardsheet", "1.0.0"))

	registerSheetRoutes(api, NewSheetHandler(svc, logger))
	registerCardRoutes(api, NewCardHandler(svc, logger))
	registerClusterRoutes(api, NewClusterHandler(svc, logger))
	registerActorRoutes(api, NewActorHandler(svc, logger))
	registerPluginRoutes(api, NewPluginHandler(plugins, logger).WithBreakers(opts.Breakers))

	return mux
}
