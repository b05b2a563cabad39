package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the console gateway
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Auth metrics
	SignInsTotal            *prometheus.CounterVec
	SignOutsTotal           prometheus.Counter
	CallbackOutcomesTotal   *prometheus.CounterVec
	ProfileResolutionsTotal *prometheus.CounterVec
	GuardDecisionsTotal     *prometheus.CounterVec

	// Tenant metrics
	TenantSwitchesTotal    prometheus.Counter
	TenantListRefreshTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "console_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		SignInsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_sign_ins_total",
				Help: "Total number of sign-in events observed from the identity provider",
			},
			[]string{"source"},
		),
		SignOutsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "console_sign_outs_total",
				Help: "Total number of sign-outs",
			},
		),
		CallbackOutcomesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_sso_callback_outcomes_total",
				Help: "Terminal states reached by SSO callback handshakes",
			},
			[]string{"outcome"},
		),
		ProfileResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_profile_resolutions_total",
				Help: "Profile resolutions by strategy that produced the profile",
			},
			[]string{"strategy"},
		),
		GuardDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_guard_decisions_total",
				Help: "Route guard decisions",
			},
			[]string{"decision"},
		),
		TenantSwitchesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "console_tenant_switches_total",
				Help: "User-initiated active tenant switches",
			},
		),
		TenantListRefreshTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_tenant_list_refresh_total",
				Help: "Tenant list refresh attempts by result",
			},
			[]string{"result"},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.SignInsTotal,
		m.SignOutsTotal,
		m.CallbackOutcomesTotal,
		m.ProfileResolutionsTotal,
		m.GuardDecisionsTotal,
		m.TenantSwitchesTotal,
		m.TenantListRefreshTotal,
	)

	return m
}

// Handler returns the Prometheus scrape handler for this metrics registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps an HTTP handler with request counting and timing.
// The path label should be the route pattern, not the raw URL, to keep
// cardinality bounded.
func (m *Metrics) InstrumentHandler(path string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rw.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
