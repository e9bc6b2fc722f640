package metric

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yndnr/postvote-go/internal/core/domain"
)

const namespace = "postvote"

// ResultOK is the result label of a successful operation.
const ResultOK = "ok"

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Domain metrics
	Registrations *prometheus.CounterVec // result
	Logins        *prometheus.CounterVec // result
	Verifications *prometheus.CounterVec // result
	PostsCreated  *prometheus.CounterVec // result
	Votes         *prometheus.CounterVec // direction, result

	// Request metrics
	RequestsTotal    *prometheus.CounterVec   // method, route, status
	RequestDuration  *prometheus.HistogramVec // method, route
	RequestsInFlight prometheus.Gauge
}

// NewRegistry creates a registry with the application metrics plus the Go
// runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,
		Registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "User registrations by result.",
		}, []string{"result"}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		Verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_verifications_total",
			Help:      "Session token verifications by result.",
		}, []string{"result"}),
		PostsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "posts_created_total",
			Help:      "Post creation attempts by result.",
		}, []string{"result"}),
		Votes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_total",
			Help:      "Votes cast by direction and result.",
		}, []string{"direction", "result"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		RequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "HTTP requests currently being served.",
		}),
	}

	reg.MustRegister(
		r.Registrations,
		r.Logins,
		r.Verifications,
		r.PostsCreated,
		r.Votes,
		r.RequestsTotal,
		r.RequestDuration,
		r.RequestsInFlight,
	)
	return r
}

// Registerer returns the underlying registerer for additional collectors.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.registry
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// ObserveRequest records a completed HTTP request.
func (r *Registry) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	r.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Result converts an operation outcome into a bounded label value:
// ResultOK, the domain error code, or "error".
func Result(err error) string {
	if err == nil {
		return ResultOK
	}
	if code := domain.GetErrorCode(err); code != "" {
		return code
	}
	return "error"
}
