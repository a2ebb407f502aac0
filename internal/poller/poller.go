package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/pool-quote-engine/internal/registry"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/storage"
)

// PoolLister lists the pools to keep warm
type PoolLister interface {
	All() []registry.Pool
}

// SnapshotPoller refreshes cached pool snapshots on a fixed interval so
// quotes rarely pay for a chain read
type SnapshotPoller struct {
	pools    PoolLister
	reader   storage.StateReader
	cache    storage.SnapshotCache
	interval time.Duration
	delay    time.Duration
	logger   *logrus.Logger

	mu       sync.RWMutex
	running  bool
	lastSlot map[string]uint64
}

// Config holds configuration for the snapshot poller
type Config struct {
	Pools    PoolLister
	Reader   storage.StateReader
	Cache    storage.SnapshotCache
	Interval time.Duration
	// Pause between pools within one round to stay under RPC rate limits
	DelayBetweenPools time.Duration
	Logger            *logrus.Logger
}

// New creates a new snapshot poller
func New(cfg Config) (*SnapshotPoller, error) {
	if cfg.Pools == nil || cfg.Reader == nil || cfg.Cache == nil {
		return nil, fmt.Errorf("poller requires pools, reader and cache")
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %s", cfg.Interval)
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &SnapshotPoller{
		pools:    cfg.Pools,
		reader:   cfg.Reader,
		cache:    cfg.Cache,
		interval: cfg.Interval,
		delay:    cfg.DelayBetweenPools,
		logger:   cfg.Logger,
		lastSlot: make(map[string]uint64),
	}, nil
}

// Start polls until ctx is done. The first round runs immediately.
func (p *SnapshotPoller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("poller already running")
	}
	p.running = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.WithFields(logrus.Fields{
		"interval": p.interval,
		"pools":    len(p.pools.All()),
	}).Info("starting snapshot polling")

	p.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.Poll(ctx)
		}
	}
}

// Poll refreshes every pool once and returns how many were written
func (p *SnapshotPoller) Poll(ctx context.Context) int {
	refreshed := 0
	for i, pool := range p.pools.All() {
		if i > 0 && p.delay > 0 {
			select {
			case <-ctx.Done():
				return refreshed
			case <-time.After(p.delay):
			}
		}

		state, err := p.reader.FetchPool(ctx, pool.Account)
		if err != nil {
			p.logger.WithError(err).WithField("pool", pool.Name).Warn("failed to fetch pool state")
			continue
		}
		if err := p.cache.SetSnapshot(ctx, pool.Name, state); err != nil {
			p.logger.WithError(err).WithField("pool", pool.Name).Warn("failed to cache snapshot")
			continue
		}
		refreshed++

		p.mu.Lock()
		prev := p.lastSlot[pool.Name]
		p.lastSlot[pool.Name] = state.Slot
		p.mu.Unlock()

		if state.Slot != prev {
			p.logger.WithFields(logrus.Fields{
				"pool": pool.Name,
				"slot": state.Slot,
			}).Debug("snapshot refreshed")
		}
	}
	return refreshed
}

// LastSlot returns the slot of the last snapshot written for pool
func (p *SnapshotPoller) LastSlot(pool string) (uint64, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	slot, ok := p.lastSlot[pool]
	return slot, ok
}
