package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/pool-quote-engine/internal/cache"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/config"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/constants"
)

// main tails served quotes from Redis pub/sub
func main() {
	poolFlag := flag.String("pool", "", "Only show quotes for this pool (default: all pools)")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutting down subscriber")
		cancel()
	}()

	quoteCache, err := cache.NewRedisCache(ctx, cache.RedisConfig{
		Addr:   cfg.RedisAddr,
		Logger: logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to Redis")
	}
	defer quoteCache.Close()

	pattern := constants.PubSubChannelQuotes
	if *poolFlag != "" {
		pattern = constants.PubSubChannelPoolPrefix + *poolFlag
	}

	events, err := quoteCache.SubscribeQuotes(ctx, pattern)
	if err != nil {
		logger.WithError(err).Fatal("failed to subscribe")
	}

	logger.Info("subscriber running, press Ctrl+C to stop")
	for q := range events {
		logger.WithFields(logrus.Fields{
			"pool":      q.Pool,
			"direction": q.Direction,
			"in":        q.InputAmount,
			"out":       q.OutputAmount,
			"fee_bps":   q.EffectiveFeeBps,
			"impact":    q.PriceImpactBps,
			"source":    q.Source,
			"slot":      q.Slot,
		}).Info("quote")
	}
}
