package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mocks_server"

// Label values used when a request was not served by a route variant.
const (
	LabelNone   = "none"
	LabelRouter = "router"
)

// Registry holds the server metrics.
type Registry struct {
	registry    *prometheus.Registry
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	routes      prometheus.Gauge
	collections prometheus.Gauge
}

// NewRegistry creates a registry with the server metrics and the Go runtime
// collectors registered.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of requests handled by the mock server.",
		}, []string{"route", "variant", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Duration of requests handled by the mock server, including delays.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "variant"}),
		routes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "routes",
			Help:      "Number of loaded routes.",
		}),
		collections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "collections",
			Help:      "Number of loaded collections.",
		}),
	}
	r.registry.MustRegister(
		r.requests,
		r.duration,
		r.routes,
		r.collections,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveRequest records one served request.
func (r *Registry) ObserveRequest(route, variant string, status int, elapsed time.Duration) {
	if route == "" {
		route = LabelNone
	}
	if variant == "" {
		variant = LabelNone
	}
	r.requests.WithLabelValues(route, variant, strconv.Itoa(status)).Inc()
	r.duration.WithLabelValues(route, variant).Observe(elapsed.Seconds())
}

// SetMocks updates the loaded routes and collections gauges.
func (r *Registry) SetMocks(routes, collections int) {
	r.routes.Set(float64(routes))
	r.collections.Set(float64(collections))
}

// Gatherer returns the underlying prometheus gatherer.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		Registry: r.registry,
	})
}
