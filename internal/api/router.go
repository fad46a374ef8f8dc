package api

import (
	"dispatch-route-service/internal/api/handlers"
	"dispatch-route-service/internal/platform/obs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the read-only views the HTTP surface needs.
type Deps struct {
	Resources   handlers.ResourceSource
	Emergencies handlers.EmergencySource
	Clock       handlers.Clock
	Metrics     *obs.Metrics
	CORSOrigins []string
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(deps Deps) http.Handler {
	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(loggingMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))

	resourceHandler := &handlers.ResourceHandler{Store: deps.Resources}
	emergencyHandler := &handlers.EmergencyHandler{Board: deps.Emergencies, Clock: deps.Clock}
	routeHandler := &handlers.RouteHandler{Store: deps.Resources}

	r.Get("/health", handlers.Health)
	r.Get("/resources", resourceHandler.List)
	r.Get("/resources/{resourceID}", resourceHandler.Get)
	r.Get("/emergencies", emergencyHandler.List)
	r.Get("/routes", routeHandler.List)

	if deps.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Metrics.Registry, promhttp.HandlerOpts{}))
	}

	return r
}
