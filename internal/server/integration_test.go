package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/pool-quote-engine/internal/cache"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/chain"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/engine"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/metrics"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/models"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/quoter"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/registry"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/schedules"
)

type countingReader struct {
	calls atomic.Int32
	state chain.PoolState
}

func (r *countingReader) FetchPool(_ context.Context, account solana.PublicKey) (*chain.PoolState, error) {
	r.calls.Add(1)
	st := r.state
	st.Account = account
	return &st, nil
}

func setupIntegrationTest(t *testing.T) (*testEnv, *countingReader) {
	t.Helper()

	// Check if Redis is available
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: redisAddr,
		DB:   3, // Use different DB for integration tests
	})
	t.Cleanup(func() { _ = redisClient.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for integration tests: %v", err)
	}

	// Clear test DB
	_ = redisClient.FlushDB(ctx).Err()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	reg, err := registry.New([]registry.PoolConfig{{
		Name:          testPool,
		PoolAccount:   testAccount.String(),
		BaseSymbol:    "ARENA",
		QuoteSymbol:   "USDC",
		BaseDecimals:  9,
		QuoteDecimals: 6,
	}})
	require.NoError(t, err)

	quoteCache := cache.NewRedisCacheFromClient(redisClient, logger).WithSnapshotTTL(time.Minute)
	scheduleStore, err := schedules.NewStore(redisClient)
	require.NoError(t, err)

	m, err := metrics.New()
	require.NoError(t, err)

	reader := &countingReader{state: testReserves()}
	svc, err := quoter.NewService(quoter.Config{
		Mode:      quoter.ModeLocal,
		Pools:     reg,
		Reader:    reader,
		Cache:     quoteCache,
		Overrides: scheduleStore,
		Feed:      quoteCache,
		Metrics:   m,
		Clock:     func() time.Time { return time.UnixMilli(1_700_000_000_000) },
		Logger:    logger,
	})
	require.NoError(t, err)

	srv, err := NewServer(ServerDeps{
		Handlers: &Handlers{
			Quoter:    svc,
			Schedules: scheduleStore,
			Recent:    quoteCache,
			Metrics:   m.Handler(),
			DevMode:   true,
			Logger:    logger,
		},
		Config: ServerConfig{DevMode: true, APIKey: testAPIKey},
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testEnv{url: ts.URL}, reader
}

func TestIntegration_SnapshotCache(t *testing.T) {
	env, reader := setupIntegrationTest(t)

	for i := 0; i < 3; i++ {
		price := decode[PriceResponse](t, env.do(t, http.MethodGet, "/v1/pools/"+testPool+"/price", nil, http.StatusOK))
		assert.Equal(t, "100000000", price.SpotPrice)
	}
	assert.Equal(t, int32(1), reader.calls.Load(), "later reads should be served from the snapshot cache")
}

func TestIntegration_RecentQuotes(t *testing.T) {
	env, _ := setupIntegrationTest(t)

	served := decode[QuoteResponse](t, env.do(t, http.MethodPost, "/v1/quote", QuoteRequest{
		Pool: testPool, Direction: "buy", InputAmount: "1000000",
	}, http.StatusOK))

	out := decode[struct {
		Items []models.QuoteEvent `json:"items"`
	}](t, env.do(t, http.MethodGet, "/v1/quotes/recent?limit=10", nil, http.StatusOK))

	require.Len(t, out.Items, 1)
	assert.Equal(t, served.ID, out.Items[0].ID)
	assert.Equal(t, "9410599", out.Items[0].OutputAmount)
	assert.Equal(t, models.SourceLocal, out.Items[0].Source)

	resp := env.do(t, http.MethodGet, "/v1/quotes/recent?limit=500", nil, http.StatusBadRequest)
	e := decode[ErrorResponse](t, resp)
	assert.Contains(t, e.Error, "invalid limit")
}

func TestIntegration_ScheduleOverride(t *testing.T) {
	env, _ := setupIntegrationTest(t)

	before := decode[EffectiveFeeResponse](t, env.do(t, http.MethodPost, "/v1/fees/effective", EffectiveFeeRequest{
		Pool: testPool, Direction: "buy", InputAmount: "1000000",
	}, http.StatusOK))
	assert.Equal(t, uint32(500), before.EffectiveFeeBps)

	override := engine.FeeSchedule{
		BaseFeeBps:        100,
		MaxDumpFeeBps:     100,
		PrizePoolShareBps: 10_000,
	}
	env.do(t, http.MethodPut, "/v1/schedules/"+testPool, override, http.StatusOK)

	q := decode[QuoteResponse](t, env.do(t, http.MethodPost, "/v1/quote", QuoteRequest{
		Pool: testPool, Direction: "buy", InputAmount: "1000000",
	}, http.StatusOK))
	assert.Equal(t, uint32(100), q.EffectiveFeeBps)
	assert.Equal(t, "10000", q.FeeAmount)
	assert.Equal(t, "10000", q.Split.PrizePoolShare)
	assert.Equal(t, "0", q.Split.TreasuryShare)

	env.do(t, http.MethodDelete, "/v1/schedules/"+testPool, nil, http.StatusNoContent)

	after := decode[EffectiveFeeResponse](t, env.do(t, http.MethodPost, "/v1/fees/effective", EffectiveFeeRequest{
		Pool: testPool, Direction: "buy", InputAmount: "1000000",
	}, http.StatusOK))
	assert.Equal(t, uint32(500), after.EffectiveFeeBps)
}

func TestIntegration_ConcurrentRequests(t *testing.T) {
	env, _ := setupIntegrationTest(t)

	const numRequests = 50
	const numGoroutines = 10

	var wg sync.WaitGroup
	var okCount atomic.Int32
	client := &http.Client{Timeout: 5 * time.Second}

	for g := 0; g < numGoroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < numRequests/numGoroutines; i++ {
				req, err := http.NewRequest(http.MethodGet, env.url+"/v1/pools/"+testPool+"/price", nil)
				if err != nil {
					continue
				}
				req.Header.Set("X-API-Key", testAPIKey)
				resp, err := client.Do(req)
				if err != nil {
					continue
				}
				if resp.StatusCode == http.StatusOK {
					okCount.Add(1)
				}
				_ = resp.Body.Close()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(numRequests), okCount.Load())
}
