// Package quoter serves prices, fees and quotes for configured pools. It
// loads pool state, runs the engine at the current time and, in
// authoritative mode, reconciles every quote against the on-chain program.
package quoter

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/aman-zulfiqar/pool-quote-engine/internal/cache"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/chain"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/engine"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/metrics"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/models"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/registry"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/simulate"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/storage"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/units"
)

// PoolResolver looks pools up by name. *registry.Registry satisfies it.
type PoolResolver interface {
	FindByName(name string) (*registry.Pool, error)
	All() []registry.Pool
}

// Simulator runs a trade against the authoritative program.
// *simulate.Client satisfies it.
type Simulator interface {
	SimulateTrade(ctx context.Context, req simulate.Request) (*simulate.Result, error)
}

// Config holds the service's collaborators. Pools and Reader are required;
// the rest are optional and skipped when nil.
type Config struct {
	Mode   Mode
	Limits Limits

	Pools     PoolResolver
	Reader    storage.StateReader
	Cache     storage.SnapshotCache
	Overrides storage.ScheduleOverrides
	Feed      storage.QuoteFeed
	Store     storage.QuoteStore
	Simulator Simulator

	// Outputs further apart than this are reported as a divergence. Fee rate
	// mismatches are always reported.
	DivergenceToleranceBps uint32
	// Serve the divergence as an error instead of the authoritative quote.
	StrictReconcile bool
	// How long best-effort recording may take after a quote is computed.
	RecordTimeout time.Duration

	Metrics *metrics.Metrics
	Clock   func() time.Time
	Logger  *logrus.Logger
}

type Service struct {
	mode          Mode
	limits        Limits
	engine        *engine.Engine
	pools         PoolResolver
	reader        storage.StateReader
	cache         storage.SnapshotCache
	overrides     storage.ScheduleOverrides
	feed          storage.QuoteFeed
	store         storage.QuoteStore
	simulator     Simulator
	tolerance     uint32
	strict        bool
	recordTimeout time.Duration
	metrics       *metrics.Metrics
	clock         func() time.Time
	logger        *logrus.Logger
}

func NewService(cfg Config) (*Service, error) {
	if cfg.Pools == nil {
		return nil, fmt.Errorf("pool resolver is nil")
	}
	if cfg.Reader == nil {
		return nil, fmt.Errorf("state reader is nil")
	}
	mode, err := ParseMode(string(cfg.Mode))
	if err != nil {
		return nil, err
	}
	if mode == ModeAuthoritative && cfg.Simulator == nil {
		return nil, ErrSimulatorRequired
	}
	if cfg.Limits == (Limits{}) {
		cfg.Limits = DefaultLimits()
	}
	if cfg.Limits.DefaultSlippageBps > cfg.Limits.MaxSlippageBps {
		return nil, fmt.Errorf("default slippage %d bps exceeds max %d bps",
			cfg.Limits.DefaultSlippageBps, cfg.Limits.MaxSlippageBps)
	}
	if cfg.RecordTimeout <= 0 {
		cfg.RecordTimeout = 2 * time.Second
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	return &Service{
		mode:          mode,
		limits:        cfg.Limits,
		engine:        engine.New(),
		pools:         cfg.Pools,
		reader:        cfg.Reader,
		cache:         cfg.Cache,
		overrides:     cfg.Overrides,
		feed:          cfg.Feed,
		store:         cfg.Store,
		simulator:     cfg.Simulator,
		tolerance:     cfg.DivergenceToleranceBps,
		strict:        cfg.StrictReconcile,
		recordTimeout: cfg.RecordTimeout,
		metrics:       cfg.Metrics,
		clock:         cfg.Clock,
		logger:        cfg.Logger,
	}, nil
}

func (s *Service) Mode() Mode {
	return s.mode
}

// Pools lists configured pools ordered by name.
func (s *Service) Pools() []registry.Pool {
	return s.pools.All()
}

func (s *Service) nowMs() uint64 {
	ms := s.clock().UnixMilli()
	if ms < 0 {
		return 0
	}
	return uint64(ms)
}

// View loads a pool's reserves and effective fee schedule. The state read and
// the override lookup run concurrently.
func (s *Service) View(ctx context.Context, name string) (*PoolView, error) {
	pool, err := s.pools.FindByName(name)
	if err != nil {
		return nil, err
	}

	var (
		state      *chain.PoolState
		override   *engine.FeeSchedule
		overridden bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		st, err := s.loadState(gctx, pool)
		if err != nil {
			return err
		}
		state = st
		return nil
	})
	if s.overrides != nil {
		g.Go(func() error {
			o, ok, err := s.overrides.Lookup(gctx, pool.Name)
			if err != nil {
				// An unreachable override store must not block quoting.
				s.logger.WithError(err).WithField("pool", pool.Name).Warn("schedule override lookup failed")
				return nil
			}
			override, overridden = o, ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.metrics.QuoteError(name, "state")
		return nil, err
	}

	view := &PoolView{Pool: *pool, State: *state}
	if overridden && override != nil {
		view.State.Schedule = *override
		view.Overridden = true
	}
	return view, nil
}

// loadState reads through the snapshot cache to the chain.
func (s *Service) loadState(ctx context.Context, pool *registry.Pool) (*chain.PoolState, error) {
	if s.cache != nil {
		st, err := s.cache.GetSnapshot(ctx, pool.Name)
		switch {
		case err == nil:
			s.metrics.CacheHit()
			return st, nil
		case errors.Is(err, cache.ErrCacheMiss):
		default:
			s.logger.WithError(err).WithField("pool", pool.Name).Warn("snapshot cache read failed")
		}
		s.metrics.CacheMiss()
	}

	st, err := s.reader.FetchPool(ctx, pool.Account)
	if err != nil {
		return nil, fmt.Errorf("load pool %s: %w", pool.Name, err)
	}

	if s.cache != nil {
		if err := s.cache.SetSnapshot(ctx, pool.Name, st); err != nil {
			s.logger.WithError(err).WithField("pool", pool.Name).Warn("snapshot cache write failed")
		}
	}
	return st, nil
}

// Price returns the pool's spot price.
func (s *Service) Price(ctx context.Context, name string) (*PriceResult, error) {
	view, err := s.View(ctx, name)
	if err != nil {
		return nil, err
	}
	price, err := s.engine.Price(view.State.Reserves)
	if err != nil {
		return nil, err
	}
	return &PriceResult{
		Pool:         view.Pool.Name,
		SpotPrice:    price,
		PriceDisplay: units.PriceToDecimal(price, view.Pool.BaseDecimals, view.Pool.QuoteDecimals).String(),
		Slot:         view.State.Slot,
	}, nil
}

// MarketValue values baseAmount of the pool's base asset at spot.
func (s *Service) MarketValue(ctx context.Context, name string, baseAmount *big.Int) (*big.Int, error) {
	view, err := s.View(ctx, name)
	if err != nil {
		return nil, err
	}
	return engine.MarketValue(view.State.Reserves, baseAmount)
}

// EffectiveFee returns the fee rate a trade would pay right now.
func (s *Service) EffectiveFee(ctx context.Context, name string, dir engine.Direction, amount *big.Int) (uint32, error) {
	view, err := s.View(ctx, name)
	if err != nil {
		return 0, err
	}
	return s.engine.Fee(view.State.Reserves, view.State.Schedule,
		engine.TradeRequest{Direction: dir, InputAmount: amount}, s.nowMs())
}

// SplitFee divides a fee per the pool's prize pool share.
func (s *Service) SplitFee(ctx context.Context, name string, feeAmount *big.Int) (*engine.FeeSplit, error) {
	view, err := s.View(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.engine.Split(view.State.Schedule, feeAmount)
}

// Quote prices a trade. In authoritative mode the simulation runs alongside
// the state read and its result is the one served.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (*QuoteResult, error) {
	start := s.clock()

	slippage := s.limits.DefaultSlippageBps
	if req.SlippageBps != nil {
		slippage = *req.SlippageBps
	}
	if slippage > s.limits.MaxSlippageBps {
		return nil, fmt.Errorf("%w: %d > %d bps", ErrSlippageTooHigh, slippage, s.limits.MaxSlippageBps)
	}
	if req.Direction != engine.Buy && req.Direction != engine.Sell {
		return nil, engine.ErrUnknownDirection
	}
	if req.InputAmount == nil {
		return nil, engine.ErrInvalidAmount
	}
	if req.InputAmount.Sign() < 0 {
		return nil, engine.ErrNegativeAmount
	}

	pool, err := s.pools.FindByName(req.Pool)
	if err != nil {
		return nil, err
	}

	var (
		view *PoolView
		sim  *simulate.Result
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.View(gctx, pool.Name)
		if err != nil {
			return err
		}
		view = v
		return nil
	})
	if s.mode == ModeAuthoritative {
		g.Go(func() error {
			r, err := s.simulator.SimulateTrade(gctx, simulate.Request{
				Pool:        pool.Account,
				Direction:   req.Direction,
				InputAmount: req.InputAmount,
			})
			if err != nil {
				s.metrics.QuoteError(req.Pool, "simulate")
				return fmt.Errorf("%w: %w", ErrSimulationFailed, err)
			}
			sim = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	local, err := s.engine.Quote(view.State.Reserves, view.State.Schedule,
		engine.TradeRequest{Direction: req.Direction, InputAmount: req.InputAmount}, s.nowMs())
	if err != nil {
		s.metrics.QuoteError(req.Pool, "engine")
		return nil, err
	}

	served := *local
	source := models.SourceLocal
	slot := view.State.Slot
	var divergence *DivergenceError

	if sim != nil {
		divergence = s.reconcile(view, req, *local, sim.Quote)
		if divergence != nil && s.strict {
			s.recordDivergence(ctx, divergence)
			return nil, divergence
		}
		served = sim.Quote
		source = models.SourceAuthoritative
		if sim.Slot > 0 {
			slot = sim.Slot
		}
	}

	res, err := s.buildResult(view, req, served, slippage)
	if err != nil {
		return nil, err
	}
	res.Source = source
	res.Slot = slot
	res.Divergence = divergence

	s.metrics.ObserveQuote(view.Pool.Name, req.Direction.String(), source,
		served.EffectiveFeeBps, s.clock().Sub(start).Seconds(), string(s.mode))
	s.record(ctx, res)

	return res, nil
}

func (s *Service) buildResult(view *PoolView, req QuoteRequest, q engine.Quote, slippage uint32) (*QuoteResult, error) {
	reserves := view.State.Reserves

	minOut, err := engine.ApplySlippage(q.OutputAmount, slippage)
	if err != nil {
		return nil, err
	}
	impact, err := engine.PriceImpactBps(reserves, req.Direction, req.InputAmount, q.OutputAmount)
	if err != nil {
		return nil, err
	}
	split, err := s.engine.Split(view.State.Schedule, q.FeeAmount)
	if err != nil {
		return nil, err
	}
	spot, err := s.engine.Price(reserves)
	if err != nil {
		return nil, err
	}

	return &QuoteResult{
		ID:                    uuid.NewString(),
		Pool:                  view.Pool.Name,
		Direction:             req.Direction.String(),
		InputAmount:           new(big.Int).Set(req.InputAmount),
		Quote:                 q,
		MinOutputAmount:       minOut,
		SlippageBps:           slippage,
		PriceImpactBps:        impact,
		ExceedsMaxPriceImpact: s.limits.MaxPriceImpactBps > 0 && impact > s.limits.MaxPriceImpactBps,
		Split:                 *split,
		SpotPrice:             spot,
	}, nil
}
