// Package metrics exposes the console's Prometheus instruments.
// Every method is safe on a nil *Metrics, which disables collection.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	obserrors "github.com/siamkarim/2mro-admin/internal/observability/errors"
)

const namespace = "admin_console"

// Route guard decisions.
const (
	DecisionAllow    = "allow"
	DecisionRedirect = "redirect"
	DecisionHome     = "home"
)

// Metrics holds all Prometheus instruments.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	tokenRefresh   *prometheus.CounterVec
	guardDecisions *prometheus.CounterVec
	roleDenials    *prometheus.CounterVec
	loginAttempts  *prometheus.CounterVec
	identityCache  *prometheus.CounterVec
	upstreamErrors *prometheus.CounterVec
}

// New creates and registers all instruments on registry.
// A nil registry gets a fresh one with the Go and process collectors.
func New(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m := &Metrics{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests served.",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		tokenRefresh: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "token_refresh_total",
				Help:      "Token refresh attempts by result.",
			},
			[]string{"result"},
		),
		guardDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "route_guard_decisions_total",
				Help:      "Edge route guard decisions.",
			},
			[]string{"decision"},
		),
		roleDenials: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "role_guard_denials_total",
				Help:      "Requests rejected by a role guard.",
			},
			[]string{"route"},
		),
		loginAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "login_attempts_total",
				Help:      "Login attempts by result.",
			},
			[]string{"result"},
		),
		identityCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "identity_cache_total",
				Help:      "Identity cache lookups by result.",
			},
			[]string{"result"},
		),
		upstreamErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_errors_total",
				Help:      "Failed calls to the remote API by error class.",
			},
			[]string{"class"},
		),
	}

	registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.tokenRefresh,
		m.guardDecisions,
		m.roleDenials,
		m.loginAttempts,
		m.identityCache,
		m.upstreamErrors,
	)
	return m
}

// Registry returns the registry backing m.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one served request. route is the mux pattern, never the raw path.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveRefresh implements apiclient.RefreshObserver.
func (m *Metrics) ObserveRefresh(result string) {
	if m == nil {
		return
	}
	m.tokenRefresh.WithLabelValues(result).Inc()
}

// ObserveGuard records a route guard decision.
func (m *Metrics) ObserveGuard(decision string) {
	if m == nil {
		return
	}
	m.guardDecisions.WithLabelValues(decision).Inc()
}

// ObserveRoleDenial records a role guard rejection for route.
func (m *Metrics) ObserveRoleDenial(route string) {
	if m == nil {
		return
	}
	m.roleDenials.WithLabelValues(route).Inc()
}

// ObserveLogin implements service.LoginObserver.
func (m *Metrics) ObserveLogin(result string) {
	if m == nil {
		return
	}
	m.loginAttempts.WithLabelValues(result).Inc()
}

// ObserveIdentityCache implements service.CacheObserver.
func (m *Metrics) ObserveIdentityCache(result string) {
	if m == nil {
		return
	}
	m.identityCache.WithLabelValues(result).Inc()
}

// ObserveUpstreamError counts a failed remote call by its error class.
func (m *Metrics) ObserveUpstreamError(err error) {
	if m == nil || err == nil {
		return
	}
	m.upstreamErrors.WithLabelValues(obserrors.Classify(err)).Inc()
}
