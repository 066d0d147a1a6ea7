package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/baratexlondres-code/two-wheels-motorcycles/internal/auth"
	"github.com/baratexlondres-code/two-wheels-motorcycles/internal/customers"
	"github.com/baratexlondres-code/two-wheels-motorcycles/internal/observability"
	"github.com/baratexlondres-code/two-wheels-motorcycles/internal/repairs"
	"github.com/baratexlondres-code/two-wheels-motorcycles/internal/reports"
	"github.com/baratexlondres-code/two-wheels-motorcycles/internal/sales"
	"github.com/baratexlondres-code/two-wheels-motorcycles/internal/settings"
	"github.com/baratexlondres-code/two-wheels-motorcycles/internal/stock"
	"github.com/baratexlondres-code/two-wheels-motorcycles/internal/vehicles"
	"github.com/baratexlondres-code/two-wheels-motorcycles/internal/whatsapp"
	"github.com/baratexlondres-code/two-wheels-motorcycles/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	AuthHandler      *auth.Handler
	CustomersHandler *customers.Handler
	VehiclesHandler  *vehicles.Handler
	RepairsHandler   *repairs.Handler
	StockHandler     *stock.Handler
	SalesHandler     *sales.Handler
	SettingsHandler  *settings.Handler
	WhatsAppHandler  *whatsapp.Handler
	ReportsHandler   *reports.Handler
	JobsHandler      *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router. Everything except the health check and
// the unlock endpoint sits behind the access gate.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	if params.Metrics != nil {
		r.Use(params.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		r.Use(params.AuthHandler.Middleware)

		if params.CustomersHandler != nil {
			r.Route("/customers", params.CustomersHandler.MountRoutes)
		}
		if params.VehiclesHandler != nil {
			r.Route("/vehicles", params.VehiclesHandler.MountRoutes)
		}
		if params.RepairsHandler != nil {
			r.Route("/repairs", params.RepairsHandler.MountRoutes)
		}
		if params.StockHandler != nil {
			r.Route("/stock", params.StockHandler.MountRoutes)
		}
		if params.SalesHandler != nil {
			r.Route("/sales", params.SalesHandler.MountRoutes)
		}
		if params.SettingsHandler != nil {
			r.Route("/settings", params.SettingsHandler.MountRoutes)
		}
		if params.WhatsAppHandler != nil {
			r.Route("/whatsapp", params.WhatsAppHandler.MountRoutes)
		}
		if params.ReportsHandler != nil {
			r.Route("/reports", params.ReportsHandler.MountRoutes)
		}
		if params.JobsHandler != nil {
			r.Route("/jobs", params.JobsHandler.MountRoutes)
		}
	})

	return r
}
