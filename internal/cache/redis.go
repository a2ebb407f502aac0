package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/pool-quote-engine/internal/chain"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/constants"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/models"
)

var ErrCacheMiss = errors.New("cache miss")

// RedisConfig holds connection settings for NewRedisCache
type RedisConfig struct {
	Addr        string
	DB          int
	SnapshotTTL time.Duration
	Logger      *logrus.Logger
}

// RedisCache caches pool snapshots and keeps the recent-quotes feed
type RedisCache struct {
	client      *redis.Client
	snapshotTTL time.Duration
	logger      *logrus.Logger
}

// NewRedisCache connects and pings Redis
func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Addr, err)
	}
	c := NewRedisCacheFromClient(client, cfg.Logger)
	if cfg.SnapshotTTL > 0 {
		c.snapshotTTL = cfg.SnapshotTTL
	}
	return c, nil
}

// NewRedisCacheFromClient wraps an existing client (shared with the schedule store)
func NewRedisCacheFromClient(client *redis.Client, logger *logrus.Logger) *RedisCache {
	if logger == nil {
		logger = logrus.New()
	}
	return &RedisCache{
		client:      client,
		snapshotTTL: constants.DefaultSnapshotTTL,
		logger:      logger,
	}
}

// WithSnapshotTTL overrides how long snapshots live
func (r *RedisCache) WithSnapshotTTL(ttl time.Duration) *RedisCache {
	if ttl > 0 {
		r.snapshotTTL = ttl
	}
	return r
}

// GetSnapshot returns the cached pool state or ErrCacheMiss
func (r *RedisCache) GetSnapshot(ctx context.Context, pool string) (*chain.PoolState, error) {
	val, err := r.client.Get(ctx, constants.RedisKeySnapshotPrefix+pool).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	var state chain.PoolState
	if err := json.Unmarshal(val, &state); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &state, nil
}

// SetSnapshot stores pool state with the snapshot TTL
func (r *RedisCache) SetSnapshot(ctx context.Context, pool string, state *chain.PoolState) error {
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := r.client.Set(ctx, constants.RedisKeySnapshotPrefix+pool, b, r.snapshotTTL).Err(); err != nil {
		return fmt.Errorf("set snapshot: %w", err)
	}
	return nil
}

// AddRecentQuote pushes a quote onto the capped recent list
func (r *RedisCache) AddRecentQuote(ctx context.Context, quote *models.QuoteEvent) error {
	b, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("marshal quote: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, constants.RedisKeyRecentQuotes, b)
	pipe.LTrim(ctx, constants.RedisKeyRecentQuotes, 0, constants.MaxRecentQuotes-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("add recent quote: %w", err)
	}
	return nil
}

// GetRecentQuotes returns up to limit quotes, newest first
func (r *RedisCache) GetRecentQuotes(ctx context.Context, limit int64) ([]*models.QuoteEvent, error) {
	if limit <= 0 {
		return []*models.QuoteEvent{}, nil
	}
	vals, err := r.client.LRange(ctx, constants.RedisKeyRecentQuotes, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("get recent quotes: %w", err)
	}

	out := make([]*models.QuoteEvent, 0, len(vals))
	for _, v := range vals {
		var q models.QuoteEvent
		if err := json.Unmarshal([]byte(v), &q); err != nil {
			r.logger.WithError(err).Warn("skipping malformed recent quote")
			continue
		}
		out = append(out, &q)
	}
	return out, nil
}

// Ping checks if Redis is reachable
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the underlying client
func (r *RedisCache) Close() error {
	return r.client.Close()
}
