package api

import (
	"net/http"

	"bin-telemetry-service/internal/api/handlers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Deps struct {
	Analysis handlers.Analyzer
	Latest   handlers.LatestReport
	Planner  handlers.Planner
	Routes   handlers.Lifecycle
	Ingestor handlers.Ingestor
	Log      *zap.Logger
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// Handlers stay unaware of concrete adapters.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(loggingMiddleware(d.Log))
	r.Use(middleware.Recoverer)

	analysis := handlers.NewAnalysisHandler(d.Analysis, d.Latest, d.Log)
	routes := handlers.NewRouteHandler(d.Planner, d.Routes, d.Log)
	telemetry := handlers.NewTelemetryHandler(d.Ingestor, d.Log)

	r.Get("/health", handlers.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/analysis", analysis.Analyze)
	r.Get("/analysis/latest", analysis.Latest)
	r.Get("/insights", analysis.Insights)

	r.Route("/routes", func(r chi.Router) {
		r.Post("/", routes.Plan)
		r.Get("/", routes.List)
		r.Get("/{id}", routes.Get)
		r.Delete("/{id}", routes.Delete)
		r.Post("/{id}/start", routes.Start)
		r.Post("/{id}/finish", routes.Finish)
	})

	r.Post("/telemetry/bins", telemetry.IngestBin)
	r.Post("/telemetry/weather", telemetry.IngestWeather)
	r.Get("/weather/sensors", telemetry.ListWeatherSensors)

	return r
}
