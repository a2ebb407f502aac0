package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/pool-quote-engine/internal/chain"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/engine"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/metrics"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/quoter"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/registry"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/schedules"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/storage"
)

const (
	testAPIKey = "test-api-key"
	testPool   = "ARENA-USDC"
)

var testAccount = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")

type stubReader struct {
	state chain.PoolState
}

func (s *stubReader) FetchPool(_ context.Context, account solana.PublicKey) (*chain.PoolState, error) {
	st := s.state
	st.Account = account
	return &st, nil
}

type memSchedules struct {
	mu   sync.Mutex
	data map[string]*schedules.Override
}

func newMemSchedules() *memSchedules {
	return &memSchedules{data: map[string]*schedules.Override{}}
}

func (m *memSchedules) Upsert(_ context.Context, pool string, s engine.FeeSchedule) (*schedules.Override, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := &schedules.Override{Pool: pool, Schedule: s, UpdatedAt: time.Now().UTC()}
	m.data[pool] = o
	return o, nil
}

func (m *memSchedules) Get(_ context.Context, pool string) (*schedules.Override, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.data[pool]
	if !ok {
		return nil, schedules.ErrNotFound
	}
	return o, nil
}

func (m *memSchedules) List(context.Context) ([]*schedules.Override, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*schedules.Override, 0, len(m.data))
	for _, o := range m.data {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pool < out[j].Pool })
	return out, nil
}

func (m *memSchedules) Delete(_ context.Context, pool string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, pool)
	return nil
}

func (m *memSchedules) Lookup(ctx context.Context, pool string) (*engine.FeeSchedule, bool, error) {
	o, err := m.Get(ctx, pool)
	if err != nil {
		return nil, false, nil
	}
	return &o.Schedule, true, nil
}

var _ storage.ScheduleOverrides = (*memSchedules)(nil)

func testReserves() chain.PoolState {
	return chain.PoolState{
		Reserves: engine.ReserveState{
			BaseAssetReserve:  big.NewInt(1_000_000_000),
			QuoteAssetReserve: big.NewInt(100_000_000),
			CirculatingSupply: big.NewInt(1_000_000_000),
		},
		Schedule: engine.FeeSchedule{
			BaseFeeBps:        500,
			DumpThresholdBps:  200,
			DumpSlopeBps:      20000,
			MaxDumpFeeBps:     2500,
			PrizePoolShareBps: 5000,
		},
		Slot: 77,
	}
}

type testEnv struct {
	url       string
	schedules *memSchedules
}

func newTestEnv(t *testing.T, mutate func(*quoter.Config)) *testEnv {
	t.Helper()

	reg, err := registry.New([]registry.PoolConfig{{
		Name:          testPool,
		PoolAccount:   testAccount.String(),
		BaseSymbol:    "ARENA",
		QuoteSymbol:   "USDC",
		BaseDecimals:  9,
		QuoteDecimals: 6,
	}})
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	m, err := metrics.New()
	require.NoError(t, err)

	store := newMemSchedules()
	qcfg := quoter.Config{
		Mode:      quoter.ModeLocal,
		Pools:     reg,
		Reader:    &stubReader{state: testReserves()},
		Overrides: store,
		Metrics:   m,
		Clock:     func() time.Time { return time.UnixMilli(1_700_000_000_000) },
		Logger:    logger,
	}
	if mutate != nil {
		mutate(&qcfg)
	}
	svc, err := quoter.NewService(qcfg)
	require.NoError(t, err)

	srv, err := NewServer(ServerDeps{
		Handlers: &Handlers{
			Quoter:    svc,
			Schedules: store,
			Metrics:   m.Handler(),
			DevMode:   true,
			Logger:    logger,
		},
		Config: ServerConfig{DevMode: true, APIKey: testAPIKey},
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testEnv{url: ts.URL, schedules: store}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, expectedStatus int) *http.Response {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, e.url+path, reqBody)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", testAPIKey)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	assert.Equal(t, expectedStatus, resp.StatusCode, "Expected status %d, got %d for %s %s", expectedStatus, resp.StatusCode, method, path)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}
