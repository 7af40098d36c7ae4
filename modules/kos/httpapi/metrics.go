package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/koskit/modules/kos"
)

// Metrics holds the API's Prometheus collectors.
type Metrics struct {
	gatherer prometheus.Gatherer

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	DomainErrors    *prometheus.CounterVec
	QuotaRejections *prometheus.CounterVec
	PaymentReviews  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kos_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kos_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		DomainErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kos_domain_errors_total",
				Help: "Requests refused by the domain service, by error kind",
			},
			[]string{"kind"},
		),
		QuotaRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kos_quota_rejections_total",
				Help: "Creations refused by plan limits",
			},
			[]string{"resource"},
		),
		PaymentReviews: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kos_payment_reviews_total",
				Help: "Payment review decisions",
			},
			[]string{"outcome"},
		),
	}
	reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.DomainErrors, m.QuotaRejections, m.PaymentReviews)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware records count and latency per route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		m.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.status)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) observeError(err error) {
	if m == nil {
		return
	}
	var quotaErr *kos.QuotaExceededError
	switch {
	case errors.As(err, &quotaErr):
		m.QuotaRejections.WithLabelValues(quotaErr.Resource).Inc()
		m.DomainErrors.WithLabelValues("quota_exceeded").Inc()
	case errors.Is(err, kos.ErrInvalidStateTransition):
		m.DomainErrors.WithLabelValues("invalid_state_transition").Inc()
	case errors.Is(err, kos.ErrReferentialConflict):
		m.DomainErrors.WithLabelValues("referential_conflict").Inc()
	case errors.Is(err, kos.ErrValidation):
		m.DomainErrors.WithLabelValues("validation").Inc()
	case errors.Is(err, kos.ErrForbidden):
		m.DomainErrors.WithLabelValues("forbidden").Inc()
	case errors.Is(err, kos.ErrNotFound):
		m.DomainErrors.WithLabelValues("not_found").Inc()
	}
}

func (m *Metrics) observeReview(outcome string) {
	if m == nil {
		return
	}
	m.PaymentReviews.WithLabelValues(outcome).Inc()
}

// statusWriter captures the status code written by the handler.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
