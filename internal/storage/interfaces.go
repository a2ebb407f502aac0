package storage

import (
	"context"
	"io"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/pool-quote-engine/internal/chain"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/engine"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/models"
)

// StateReader supplies pool state from the chain
type StateReader interface {
	// FetchPool reads reserves and fee schedule for one pool account
	FetchPool(ctx context.Context, account solana.PublicKey) (*chain.PoolState, error)
}

// SnapshotCache defines the interface for caching pool state between reads
type SnapshotCache interface {
	// GetSnapshot returns the cached state for a pool, or ErrCacheMiss
	GetSnapshot(ctx context.Context, pool string) (*chain.PoolState, error)

	// SetSnapshot caches pool state for the cache's TTL
	SetSnapshot(ctx context.Context, pool string, state *chain.PoolState) error
}

// QuoteFeed defines the interface for recent-quote history and real-time fan-out
type QuoteFeed interface {
	// AddRecentQuote adds a quote to the recent quotes list
	AddRecentQuote(ctx context.Context, quote *models.QuoteEvent) error

	// GetRecentQuotes retrieves the most recent quotes
	GetRecentQuotes(ctx context.Context, limit int64) ([]*models.QuoteEvent, error)

	// PublishQuote publishes a quote event to the Pub/Sub channels
	PublishQuote(ctx context.Context, quote *models.QuoteEvent) error

	// PublishDivergence publishes a reconciliation mismatch
	PublishDivergence(ctx context.Context, d *models.Divergence) error
}

// QuoteStore defines the interface for persistent quote history
type QuoteStore interface {
	// InsertQuote stores a quote event
	InsertQuote(ctx context.Context, quote *models.QuoteEvent) error

	// InsertDivergence stores a reconciliation mismatch
	InsertDivergence(ctx context.Context, d *models.Divergence) error

	// Ping checks if the store is reachable
	Ping(ctx context.Context) error

	// Close closes the store connection
	io.Closer
}

// ScheduleOverrides supplies operator-set fee schedules that replace the
// on-chain schedule for a pool
type ScheduleOverrides interface {
	// Lookup returns the override for a pool and whether one exists
	Lookup(ctx context.Context, pool string) (*engine.FeeSchedule, bool, error)
}
