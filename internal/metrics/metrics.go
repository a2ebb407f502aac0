// Package metrics exposes quote service counters on a private Prometheus
// registry.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pool_quote"

type Metrics struct {
	registry *prometheus.Registry

	quotes        *prometheus.CounterVec
	quoteErrors   *prometheus.CounterVec
	divergences   *prometheus.CounterVec
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter
	quoteDuration *prometheus.HistogramVec
	effectiveFee  *prometheus.HistogramVec
}

func New() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		quotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "number of quotes served",
		}, []string{"pool", "direction", "source"}),
		quoteErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_errors_total",
			Help:      "number of quote requests that failed",
		}, []string{"pool", "stage"}),
		divergences: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "divergences_total",
			Help:      "number of local quotes that disagreed with the authoritative simulation",
		}, []string{"pool", "direction"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_cache_hits_total",
			Help:      "number of pool state reads served from cache",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_cache_misses_total",
			Help:      "number of pool state reads that went to chain",
		}),
		quoteDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quote_duration_seconds",
			Help:      "time to produce a quote including state reads",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
		effectiveFee: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "effective_fee_bps",
			Help:      "effective fee rate charged per quote",
			Buckets:   []float64{50, 100, 250, 500, 750, 1000, 1500, 2500, 5000, 10000},
		}, []string{"direction"}),
	}

	err := errors.Join(
		m.registry.Register(m.quotes),
		m.registry.Register(m.quoteErrors),
		m.registry.Register(m.divergences),
		m.registry.Register(m.cacheHits),
		m.registry.Register(m.cacheMisses),
		m.registry.Register(m.quoteDuration),
		m.registry.Register(m.effectiveFee),
		m.registry.Register(collectors.NewGoCollector()),
	)
	return m, err
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// All recorders are nil-safe so callers may run without metrics.

func (m *Metrics) ObserveQuote(pool, direction, source string, feeBps uint32, seconds float64, mode string) {
	if m == nil {
		return
	}
	m.quotes.WithLabelValues(pool, direction, source).Inc()
	m.effectiveFee.WithLabelValues(direction).Observe(float64(feeBps))
	m.quoteDuration.WithLabelValues(mode).Observe(seconds)
}

func (m *Metrics) QuoteError(pool, stage string) {
	if m == nil {
		return
	}
	m.quoteErrors.WithLabelValues(pool, stage).Inc()
}

func (m *Metrics) Divergence(pool, direction string) {
	if m == nil {
		return
	}
	m.divergences.WithLabelValues(pool, direction).Inc()
}

func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}
