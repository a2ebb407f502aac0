package quoter

import (
	"context"
	"errors"
	"io"
	"math/big"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/pool-quote-engine/internal/cache"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/chain"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/engine"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/models"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/registry"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/simulate"
)

const testPoolName = "ARENA-USDC"

var testAccount = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")

func testRegistry() *registry.Registry {
	r, err := registry.New([]registry.PoolConfig{{
		Name:          testPoolName,
		PoolAccount:   testAccount.String(),
		BaseSymbol:    "ARENA",
		QuoteSymbol:   "USDC",
		BaseDecimals:  9,
		QuoteDecimals: 6,
	}})
	if err != nil {
		panic(err)
	}
	return r
}

func testState() *chain.PoolState {
	return &chain.PoolState{
		Account: testAccount,
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
		Slot: 1234,
	}
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fakeReader struct {
	mu    sync.Mutex
	state *chain.PoolState
	err   error
	calls int
}

func (f *fakeReader) FetchPool(_ context.Context, account solana.PublicKey) (*chain.PoolState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	st := *f.state
	st.Account = account
	return &st, nil
}

func (f *fakeReader) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeCache struct {
	mu   sync.Mutex
	data map[string]*chain.PoolState
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]*chain.PoolState{}}
}

func (f *fakeCache) GetSnapshot(_ context.Context, pool string) (*chain.PoolState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.data[pool]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return st, nil
}

func (f *fakeCache) SetSnapshot(_ context.Context, pool string, state *chain.PoolState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[pool] = state
	return nil
}

type fakeOverrides struct {
	schedule *engine.FeeSchedule
	err      error
}

func (f *fakeOverrides) Lookup(context.Context, string) (*engine.FeeSchedule, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	return f.schedule, f.schedule != nil, nil
}

type fakeFeed struct {
	mu          sync.Mutex
	recent      []*models.QuoteEvent
	published   []*models.QuoteEvent
	divergences []*models.Divergence
}

func (f *fakeFeed) AddRecentQuote(_ context.Context, q *models.QuoteEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recent = append(f.recent, q)
	return nil
}

func (f *fakeFeed) GetRecentQuotes(_ context.Context, limit int64) ([]*models.QuoteEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if int64(len(f.recent)) < limit {
		limit = int64(len(f.recent))
	}
	return f.recent[:limit], nil
}

func (f *fakeFeed) PublishQuote(_ context.Context, q *models.QuoteEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, q)
	return nil
}

func (f *fakeFeed) PublishDivergence(_ context.Context, d *models.Divergence) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.divergences = append(f.divergences, d)
	return nil
}

type fakeStore struct {
	mu          sync.Mutex
	quotes      []*models.QuoteEvent
	divergences []*models.Divergence
	err         error
}

func (f *fakeStore) InsertQuote(_ context.Context, q *models.QuoteEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.quotes = append(f.quotes, q)
	return nil
}

func (f *fakeStore) InsertDivergence(_ context.Context, d *models.Divergence) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.divergences = append(f.divergences, d)
	return nil
}

func (f *fakeStore) Ping(context.Context) error { return nil }
func (f *fakeStore) Close() error               { return nil }

type fakeSimulator struct {
	result *simulate.Result
	err    error
	delay  time.Duration
}

func (f *fakeSimulator) SimulateTrade(ctx context.Context, req simulate.Request) (*simulate.Result, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

var errBoom = errors.New("boom")
