package constants

import "time"

// Redis keys
const (
	RedisKeyRecentQuotes   = "quotes:recent"
	RedisKeySnapshotPrefix = "pool:snapshot:"
	RedisKeyScheduleIndex  = "schedules:index"
	RedisKeySchedulePrefix = "schedules:"
)

// Redis Pub/Sub channels
const (
	PubSubChannelQuotes     = "quotes:all"
	PubSubChannelPoolPrefix = "quotes:pool:"
	PubSubChannelDivergence = "quotes:divergence"
)

// Limits
const (
	MaxRecentQuotes = 100
)

// Caching
const (
	// DefaultSnapshotTTL keeps reserve snapshots roughly one block-confirmation
	// fresh; quotes are estimates and are reconciled on submission.
	DefaultSnapshotTTL = 2 * time.Second
)

// Quote defaults
const (
	DefaultSlippageBps            = 100 // 1%
	DefaultDivergenceToleranceBps = 0
)
