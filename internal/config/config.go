package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aman-zulfiqar/pool-quote-engine/internal/constants"
)

// Quote modes
const (
	ModeLocal         = "local"
	ModeAuthoritative = "authoritative"
)

type Config struct {
	// HTTP API
	APIAddr string
	APIKey  string
	DevMode bool

	LogLevel string

	// RPC settings
	RPCUrl     string
	RPCTimeout time.Duration

	// Pools
	PoolConfigPath string

	// Redis settings
	RedisAddr   string
	SnapshotTTL time.Duration
	// Background snapshot refresh; 0 disables it
	SnapshotPollInterval time.Duration

	// ClickHouse settings
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	// Authoritative simulation
	SimulationURL     string
	SimulationTimeout time.Duration
	MaxRetries        int
	RetryBackoff      time.Duration

	// Quoting
	QuoteMode              string
	DivergenceToleranceBps int
	StrictReconcile        bool
	DefaultSlippageBps     int
	MaxSlippageBps         int
	MaxPriceImpactBps      int

	// AI
	OpenRouterAPIKey string
	OpenRouterModel  string
}

func Load() *Config {
	return &Config{
		// HTTP
		APIAddr: getEnv("API_ADDR", ":8090"),
		APIKey:  getEnv("API_KEY", ""),
		DevMode: getBoolEnv("DEV_MODE", false),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		// RPC
		RPCUrl:     getEnv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
		RPCTimeout: getDurationEnv("RPC_TIMEOUT", 10*time.Second),

		PoolConfigPath: getEnv("POOL_CONFIG_PATH", "config/pools.json"),

		// Redis
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		SnapshotTTL: getDurationEnv("SNAPSHOT_TTL", constants.DefaultSnapshotTTL),

		SnapshotPollInterval: getDurationEnv("SNAPSHOT_POLL_INTERVAL", 0),

		// ClickHouse
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", "localhost:9000"),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "quotes"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		// Simulation
		SimulationURL:     getEnv("SIMULATION_URL", ""),
		SimulationTimeout: getDurationEnv("SIMULATION_TIMEOUT", 5*time.Second),
		MaxRetries:        getIntEnv("MAX_RETRIES", 3),
		RetryBackoff:      getDurationEnv("RETRY_BACKOFF", 500*time.Millisecond),

		// Quoting
		QuoteMode:              strings.ToLower(getEnv("QUOTE_MODE", ModeLocal)),
		DivergenceToleranceBps: getIntEnv("DIVERGENCE_TOLERANCE_BPS", constants.DefaultDivergenceToleranceBps),
		StrictReconcile:        getBoolEnv("STRICT_RECONCILE", false),
		DefaultSlippageBps:     getIntEnv("DEFAULT_SLIPPAGE_BPS", constants.DefaultSlippageBps),
		MaxSlippageBps:         getIntEnv("MAX_SLIPPAGE_BPS", 1000),
		MaxPriceImpactBps:      getIntEnv("MAX_PRICE_IMPACT_BPS", 500),

		// AI
		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterModel:  getEnv("OPENROUTER_MODEL", "openai/gpt-4.1-mini"),
	}
}

// Validate rejects combinations the services cannot start with.
func (c *Config) Validate() error {
	switch c.QuoteMode {
	case ModeLocal:
	case ModeAuthoritative:
		if c.SimulationURL == "" {
			return fmt.Errorf("SIMULATION_URL is required when QUOTE_MODE=%s", ModeAuthoritative)
		}
	default:
		return fmt.Errorf("QUOTE_MODE must be %q or %q, got %q", ModeLocal, ModeAuthoritative, c.QuoteMode)
	}

	bps := map[string]int{
		"DIVERGENCE_TOLERANCE_BPS": c.DivergenceToleranceBps,
		"DEFAULT_SLIPPAGE_BPS":     c.DefaultSlippageBps,
		"MAX_SLIPPAGE_BPS":         c.MaxSlippageBps,
		"MAX_PRICE_IMPACT_BPS":     c.MaxPriceImpactBps,
	}
	for key, v := range bps {
		if v < 0 || v > 10_000 {
			return fmt.Errorf("%s must be between 0 and 10000, got %d", key, v)
		}
	}
	if c.DefaultSlippageBps > c.MaxSlippageBps {
		return fmt.Errorf("DEFAULT_SLIPPAGE_BPS (%d) exceeds MAX_SLIPPAGE_BPS (%d)", c.DefaultSlippageBps, c.MaxSlippageBps)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES must not be negative")
	}
	if c.SnapshotPollInterval < 0 {
		return fmt.Errorf("SNAPSHOT_POLL_INTERVAL must not be negative")
	}
	if c.PoolConfigPath == "" {
		return fmt.Errorf("POOL_CONFIG_PATH is required")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
