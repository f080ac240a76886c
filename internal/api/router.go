package api

import (
	"log/slog"

	"github.com/Fantasim/looter/internal/api/handlers"
	"github.com/Fantasim/looter/internal/api/middleware"
	"github.com/Fantasim/looter/internal/config"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Deps are the read sources behind the router. Runs may be nil when the
// dispatch journal is disabled.
type Deps struct {
	Config *config.Config
	Report handlers.ReportReader
	Runs   handlers.RunReader
}

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(deps Deps) chi.Router {
	r := chi.NewRouter()

	// Middleware stack (order matters)
	r.Use(middleware.RequestLogging)
	r.Use(middleware.HostCheck)
	r.Use(middleware.CORS)
	r.Use(middleware.ReadOnly)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		handlers.NewReportCollector(deps.Report),
		collectors.NewGoCollector(),
	)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.HealthHandler(deps.Config, Version))
		r.Get("/report", handlers.GetReport(deps.Report))
		r.Get("/report/text", handlers.GetReportText(deps.Report))

		if deps.Runs != nil {
			r.Get("/runs", handlers.ListRuns(deps.Runs))
			r.Get("/runs/{id}", handlers.GetRun(deps.Runs))
		}
	})
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	slog.Info("router initialized",
		"middleware", []string{"requestLogging", "hostCheck", "cors", "readOnly"},
		"journal", deps.Runs != nil,
	)

	return r
}
