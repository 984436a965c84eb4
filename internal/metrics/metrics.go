package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "navigation"

// Metrics набор Prometheus метрик сервиса маршрутов
type Metrics struct {
	RouteCalculations prometheus.Counter
	CacheHits         prometheus.Counter
	CacheMisses       prometheus.Counter
	BackendFailures   *prometheus.CounterVec
	CalculationTime   *prometheus.HistogramVec
	RateLimited       prometheus.Counter
}

// New регистрирует метрики в reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RouteCalculations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_calculations_total",
			Help:      "Total number of compute-route calls",
		}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_cache_hits_total",
			Help:      "Total number of route cache hits",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_cache_misses_total",
			Help:      "Total number of route cache misses",
		}),
		BackendFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_failures_total",
			Help:      "Native backend failures that triggered the fallback",
		}, []string{"backend", "reason"}),
		CalculationTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "route_calculation_seconds",
			Help:      "Route calculation latency on cache miss",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 2, 5},
		}, []string{"source"}),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_requests_total",
			Help:      "Requests rejected by the rate limiter",
		}),
	}
}

// NewRegistry создает реестр с метриками Go runtime и процесса
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
