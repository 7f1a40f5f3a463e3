package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/lumbung-wms/lumbung-wms/internal/allocator"
	"github.com/lumbung-wms/lumbung-wms/internal/catalog"
	"github.com/lumbung-wms/lumbung-wms/internal/customs"
	"github.com/lumbung-wms/lumbung-wms/internal/ledger"
	"github.com/lumbung-wms/lumbung-wms/internal/registry"
	"github.com/lumbung-wms/lumbung-wms/internal/storagecost"
	"github.com/lumbung-wms/lumbung-wms/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	RegistryHandler    *registry.Handler
	CatalogHandler     *catalog.Handler
	LedgerHandler      *ledger.Handler
	StorageCostHandler *storagecost.Handler
	AllocatorHandler   *allocator.Handler
	CustomsHandler     *customs.Handler
	JobHandler         *jobs.Handler
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(api chi.Router) {
		if params.RegistryHandler != nil {
			api.Route("/registry", params.RegistryHandler.MountRoutes)
		}
		if params.CatalogHandler != nil {
			api.Route("/catalog", params.CatalogHandler.MountRoutes)
		}
		if params.LedgerHandler != nil {
			api.Route("/ledger", params.LedgerHandler.MountRoutes)
		}
		if params.StorageCostHandler != nil {
			api.Route("/storage-costs", params.StorageCostHandler.MountRoutes)
		}
		if params.AllocatorHandler != nil {
			api.Route("/allocation", params.AllocatorHandler.MountRoutes)
		}
		if params.CustomsHandler != nil {
			api.Route("/customs", params.CustomsHandler.MountRoutes)
		}
		if params.JobHandler != nil {
			api.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
