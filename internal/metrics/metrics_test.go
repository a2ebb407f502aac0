package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	m, err := New()
	require.NoError(t, err)

	m.ObserveQuote("ARENA-USDC", "buy", "local", 500, 0.001, "local")
	m.ObserveQuote("ARENA-USDC", "buy", "local", 500, 0.002, "local")
	m.Divergence("ARENA-USDC", "sell")
	m.CacheHit()
	m.CacheMiss()
	m.CacheMiss()
	m.QuoteError("ARENA-USDC", "state")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.quotes.WithLabelValues("ARENA-USDC", "buy", "local")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.divergences.WithLabelValues("ARENA-USDC", "sell")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheHits))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheMisses))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.quoteErrors.WithLabelValues("ARENA-USDC", "state")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveQuote("p", "buy", "local", 1, 0, "local")
		m.Divergence("p", "buy")
		m.CacheHit()
		m.CacheMiss()
		m.QuoteError("p", "engine")
	})
}

func TestMetrics_Handler(t *testing.T) {
	m, err := New()
	require.NoError(t, err)
	m.CacheHit()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pool_quote_snapshot_cache_hits_total 1")
}
