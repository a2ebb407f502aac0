package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/pool-quote-engine/internal/ai"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/cache"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/chain"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/config"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/metrics"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/poller"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/quoter"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/registry"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/schedules"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/server"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/simulate"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/storage"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

// main is the entry point for the quote API server
// It initializes all dependencies and starts the HTTP server with graceful shutdown
func main() {
	// Initialize structured logger with custom formatting
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	// Load and validate configuration from environment variables
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown (Ctrl+C, SIGTERM)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	pools, err := registry.Load(cfg.PoolConfigPath)
	if err != nil {
		logger.WithError(err).Fatal("failed to load pool registry")
	}
	logger.WithField("pools", pools.Count()).Info("pool registry loaded")

	reader, err := chain.NewRPCReader(cfg.RPCUrl, cfg.RPCTimeout, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to create chain reader")
	}

	// Redis backs the snapshot cache, the quote feed and schedule overrides
	rclient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   0, // Use default database for main application
	})
	if err := rclient.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Fatal("failed to connect to Redis")
	}
	defer func() {
		_ = rclient.Close()
	}()

	quoteCache := cache.NewRedisCacheFromClient(rclient, logger).WithSnapshotTTL(cfg.SnapshotTTL)

	// Keep snapshots warm in the background when configured
	if cfg.SnapshotPollInterval > 0 {
		p, err := poller.New(poller.Config{
			Pools:             pools,
			Reader:            reader,
			Cache:             quoteCache,
			Interval:          cfg.SnapshotPollInterval,
			DelayBetweenPools: 100 * time.Millisecond,
			Logger:            logger,
		})
		if err != nil {
			logger.WithError(err).Fatal("failed to create snapshot poller")
		}
		go func() {
			if err := p.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.WithError(err).Error("snapshot poller stopped")
			}
		}()
	}

	scheduleStore, err := schedules.NewStore(rclient)
	if err != nil {
		logger.WithError(err).Fatal("failed to create schedule store")
	}

	// Quote history is optional; the API keeps serving without it
	var store storage.QuoteStore
	chStore, err := cache.NewClickHouseStore(ctx, cache.ClickHouseConfig{
		Addr:     cfg.ClickHouseAddr,
		Database: cfg.ClickHouseDatabase,
		Username: cfg.ClickHouseUsername,
		Password: cfg.ClickHousePassword,
		Logger:   logger,
	})
	if err != nil {
		logger.WithError(err).Warn("clickhouse unavailable, quote history disabled")
	} else {
		store = chStore
		defer func() {
			_ = chStore.Close()
		}()
	}

	mode, err := quoter.ParseMode(cfg.QuoteMode)
	if err != nil {
		logger.WithError(err).Fatal("invalid quote mode")
	}

	var simulator quoter.Simulator
	if mode == quoter.ModeAuthoritative {
		sim, err := simulate.NewClient(simulate.Config{
			URL:          cfg.SimulationURL,
			Timeout:      cfg.SimulationTimeout,
			MaxRetries:   cfg.MaxRetries,
			RetryBackoff: cfg.RetryBackoff,
			Logger:       logger,
		})
		if err != nil {
			logger.WithError(err).Fatal("failed to create simulation client")
		}
		simulator = sim
	}

	m, err := metrics.New()
	if err != nil {
		logger.WithError(err).Fatal("failed to register metrics")
	}

	svc, err := quoter.NewService(quoter.Config{
		Mode: mode,
		Limits: quoter.Limits{
			DefaultSlippageBps: uint32(cfg.DefaultSlippageBps),
			MaxSlippageBps:     uint32(cfg.MaxSlippageBps),
			MaxPriceImpactBps:  uint32(cfg.MaxPriceImpactBps),
		},
		Pools:                  pools,
		Reader:                 reader,
		Cache:                  quoteCache,
		Overrides:              scheduleStore,
		Feed:                   quoteCache,
		Store:                  store,
		Simulator:              simulator,
		DivergenceToleranceBps: uint32(cfg.DivergenceToleranceBps),
		StrictReconcile:        cfg.StrictReconcile,
		RecordTimeout:          2 * time.Second,
		Metrics:                m,
		Logger:                 logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create quote service")
	}

	// Initialize AI agent for natural language queries (optional)
	var agent *ai.Agent
	aiBase := ai.AgentConfig{
		ClickHouseAddr:     cfg.ClickHouseAddr,
		ClickHouseDatabase: cfg.ClickHouseDatabase,
		ClickHouseUsername: cfg.ClickHouseUsername,
		ClickHousePassword: cfg.ClickHousePassword,
		OpenRouterAPIKey:   cfg.OpenRouterAPIKey,
		Model:              cfg.OpenRouterModel,
		Logger:             logger,
	}

	// Only initialize AI if OpenRouter API key is provided
	if cfg.OpenRouterAPIKey != "" {
		a, err := ai.NewAgent(ctx, aiBase)
		if err != nil {
			logger.WithError(err).Warn("failed to initialize ai agent")
		} else {
			agent = a
			defer func() {
				_ = agent.Close() // Clean up AI resources on shutdown
			}()
		}
	}

	// Create handlers with all dependencies injected
	h := &server.Handlers{
		Quoter:       svc,
		Schedules:    scheduleStore,
		Recent:       quoteCache,
		AI:           agent,
		AIBaseConfig: aiBase,
		Metrics:      m.Handler(),
		DevMode:      cfg.DevMode,
		Logger:       logger,
	}

	srv, err := server.NewServer(server.ServerDeps{
		Handlers: h,
		Config: server.ServerConfig{
			Addr:    cfg.APIAddr,
			DevMode: cfg.DevMode,
			APIKey:  cfg.APIKey,
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create http server")
	}

	// Setup graceful shutdown in a separate goroutine
	go func() {
		<-sigCh // Wait for shutdown signal
		logger.Info("shutting down")
		cancel()                               // Cancel context to stop ongoing operations
		_ = srv.Shutdown(context.Background()) // Gracefully shutdown HTTP server
	}()

	logger.WithFields(logrus.Fields{
		"addr": cfg.APIAddr,
		"mode": mode,
	}).Info("quote api starting")
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("api server failed")
	}

	// Wait for server to be fully shut down
	if err := srv.WaitClosed(context.Background()); err != nil {
		logger.WithError(err).Warn("server did not close cleanly")
	}
}
