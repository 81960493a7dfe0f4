package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/veloura-crm/veloura/internal/customers"
	"github.com/veloura-crm/veloura/internal/giftcards"
	"github.com/veloura-crm/veloura/internal/invoices"
	"github.com/veloura-crm/veloura/internal/loyalty"
	"github.com/veloura-crm/veloura/internal/pos"
	"github.com/veloura-crm/veloura/internal/promotions"
	"github.com/veloura-crm/veloura/internal/reports"
	"github.com/veloura-crm/veloura/internal/staff"
	"github.com/veloura-crm/veloura/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	CustomerHandler *customers.Handler
	StaffHandler    *staff.Handler
	InvoiceHandler  *invoices.Handler
	GiftCardHandler *giftcards.Handler
	PromoHandler    *promotions.Handler
	LoyaltyHandler  *loyalty.Handler
	POSHandler      *pos.Handler
	ReportsHandler  *reports.Handler
	JobHandler      *jobs.Handler
}

// NewRouter constructs the chi.Router with Veloura defaults.
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
		if params.CustomerHandler != nil {
			params.CustomerHandler.MountRoutes(api)
		}
		if params.StaffHandler != nil {
			params.StaffHandler.MountRoutes(api)
		}
		if params.InvoiceHandler != nil {
			params.InvoiceHandler.MountRoutes(api)
		}
		if params.GiftCardHandler != nil {
			params.GiftCardHandler.MountRoutes(api)
		}
		if params.PromoHandler != nil {
			params.PromoHandler.MountRoutes(api)
		}
		if params.LoyaltyHandler != nil {
			params.LoyaltyHandler.MountRoutes(api)
		}
		if params.POSHandler != nil {
			params.POSHandler.MountRoutes(api)
		}
		if params.ReportsHandler != nil {
			params.ReportsHandler.MountRoutes(api)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", func(jr chi.Router) {
			params.JobHandler.MountRoutes(jr)
		})
	}

	return r
}
