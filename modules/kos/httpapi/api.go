package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/koskit/modules/kos"
	"github.com/dmitrymomot/koskit/pkg/httpserver"
	"github.com/dmitrymomot/koskit/pkg/logger"
	"github.com/dmitrymomot/koskit/pkg/requestid"
)

// API routes HTTP requests to a kos.Service.
type API struct {
	svc          kos.Service
	log          *slog.Logger
	metrics      *Metrics
	checks       []httpserver.Check
	checkTimeout time.Duration
}

type Option func(*API)

func WithLogger(l *slog.Logger) Option {
	return func(api *API) {
		if l != nil {
			api.log = l
		}
	}
}

// WithMetrics enables request metrics and mounts /metrics.
func WithMetrics(m *Metrics) Option {
	return func(api *API) { api.metrics = m }
}

// WithReadinessChecks are probed by /readyz.
func WithReadinessChecks(timeout time.Duration, checks ...httpserver.Check) Option {
	return func(api *API) {
		api.checkTimeout = timeout
		api.checks = append(api.checks, checks...)
	}
}

func New(svc kos.Service, opts ...Option) *API {
	if svc == nil {
		panic("httpapi: service cannot be nil")
	}
	api := &API{svc: svc, log: logger.Discard()}
	for _, opt := range opts {
		opt(api)
	}
	return api
}

// Handler builds the router.
func (api *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(api.metrics.Middleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", httpserver.HealthCheckHandler(api.log, api.checkTimeout))
	r.Get("/readyz", httpserver.HealthCheckHandler(api.log, api.checkTimeout, api.checks...))
	if api.metrics != nil {
		r.Method(http.MethodGet, "/metrics", api.metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Route("/plans", func(r chi.Router) {
			r.Get("/", api.handle(api.listPlans))
			r.Post("/", withBody(api, api.createPlan))
			r.Get("/{slug}", api.handle(api.getPlan))
			r.Put("/{slug}", withBody(api, api.updatePlan))
			r.Delete("/{slug}", api.handle(api.deletePlan))
			r.Post("/{slug}/reapply", api.handle(api.reapplyPlan))
		})

		r.Get("/subscription", api.handle(api.getSubscription))
		r.Get("/usage", api.handle(api.usage))
		r.Get("/quota/{resource}", api.handle(api.checkQuota))
		r.Put("/owners/{ownerID}/subscription", withBody(api, api.changeSubscription))
		r.Post("/owners/{ownerID}/subscription/cancel", api.handle(api.cancelSubscription))

		r.Route("/properties", func(r chi.Router) {
			r.Get("/", api.handle(api.listProperties))
			r.Post("/", withBody(api, api.createProperty))
			r.Get("/{propertyID}", api.handle(api.getProperty))
			r.Patch("/{propertyID}/status", withBody(api, api.updatePropertyStatus))
			r.Delete("/{propertyID}", api.handle(api.deleteProperty))
			r.Get("/{propertyID}/rooms", api.handle(api.listRooms))
			r.Post("/{propertyID}/rooms", withBody(api, api.createRoom))
		})

		r.Route("/rooms/{roomID}", func(r chi.Router) {
			r.Get("/", api.handle(api.getRoom))
			r.Delete("/", api.handle(api.deleteRoom))
			r.Post("/check-in", withBody(api, api.checkIn))
			r.Post("/maintenance", api.handle(api.setMaintenance))
			r.Post("/available", api.handle(api.setAvailable))
			r.Get("/tenants", api.handle(api.listTenants))
		})

		r.Route("/tenants/{tenantID}", func(r chi.Router) {
			r.Get("/", api.handle(api.getTenant))
			r.Post("/check-out", api.handle(api.checkOut))
			r.Get("/bills", api.handle(api.listBills))
			r.Post("/bills", withBody(api, api.createBill))
		})

		r.Route("/bills/{billID}", func(r chi.Router) {
			r.Get("/", api.handle(api.getBill))
			r.Delete("/", api.handle(api.deleteBill))
			r.Post("/cancel", api.handle(api.cancelBill))
			r.Post("/mark-paid", api.handle(api.markPaid))
			r.Get("/invoice", api.handle(api.invoice))
			r.Get("/payments", api.handle(api.listPayments))
			r.Post("/payments", withBody(api, api.submitPayment))
		})

		r.Route("/payments/{paymentID}", func(r chi.Router) {
			r.Get("/", api.handle(api.getPayment))
			r.Post("/confirm", api.handle(api.confirmPayment))
			r.Post("/reject", withBody(api, api.rejectPayment))
		})
	})

	return r
}
