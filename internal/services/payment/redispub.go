package payment

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"lavapay/internal/provider"
)

// RedisPublisher bridges the in-process event bus to a Redis channel so the
// portal UI and reporting jobs can react to payment lifecycle changes without
// polling. Delivery stays best effort and at-most-once: a failed publish is
// logged and dropped, never retried against the caller.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher connects the publisher to the configured Redis instance
func NewRedisPublisher(addr, channel string) *RedisPublisher {
	return &RedisPublisher{
		client:  redis.NewClient(&redis.Options{Addr: addr}),
		channel: channel,
	}
}

// Attach subscribes the publisher to the service bus and returns the
// unsubscribe function.
func (rp *RedisPublisher) Attach(ctx context.Context, svc *Service) func() {
	return svc.OnPaymentEvent(func(evt provider.Event) {
		payload, err := json.Marshal(evt)
		if err != nil {
			log.Error().Err(err).Str("event", string(evt.Type)).Msg("redis publisher: marshal failed")
			return
		}
		if err := rp.client.Publish(ctx, rp.channel, payload).Err(); err != nil {
			log.Warn().Err(err).
				Str("event", string(evt.Type)).
				Str("payment_id", evt.PaymentID).
				Msg("redis publisher: publish failed")
		}
	})
}

// Close releases the Redis connection
func (rp *RedisPublisher) Close() error {
	return rp.client.Close()
}
