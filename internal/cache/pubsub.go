// ============================================================================
// cache/pubsub.go - Redis Pub/Sub for quote events
// ============================================================================
package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/pool-quote-engine/internal/constants"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/models"
)

// PublishQuote fans a quote out to the global and per-pool channels
func (r *RedisCache) PublishQuote(ctx context.Context, quote *models.QuoteEvent) error {
	data, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("marshal quote: %w", err)
	}

	channels := []string{
		constants.PubSubChannelQuotes,                  // All quotes
		constants.PubSubChannelPoolPrefix + quote.Pool, // Pool-specific
	}

	pipe := r.client.Pipeline()
	for _, channel := range channels {
		pipe.Publish(ctx, channel, data)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// PublishDivergence announces a reconciliation mismatch
func (r *RedisCache) PublishDivergence(ctx context.Context, d *models.Divergence) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal divergence: %w", err)
	}
	return r.client.Publish(ctx, constants.PubSubChannelDivergence, data).Err()
}

// SubscribeQuotes subscribes to a channel pattern (e.g. "quotes:pool:*") and
// delivers decoded events until ctx is done. The returned channel is closed
// when the subscription ends.
func (r *RedisCache) SubscribeQuotes(ctx context.Context, pattern string) (<-chan *models.QuoteEvent, error) {
	pubsub := r.client.PSubscribe(ctx, pattern)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", pattern, err)
	}

	r.logger.WithField("pattern", pattern).Info("subscribed to quote events")

	out := make(chan *models.QuoteEvent)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var q models.QuoteEvent
				if err := json.Unmarshal([]byte(msg.Payload), &q); err != nil {
					r.logger.WithFields(logrus.Fields{
						"channel": msg.Channel,
					}).WithError(err).Warn("error unmarshaling quote event")
					continue
				}
				select {
				case out <- &q:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
