package ws

import (
	"context"

	"zanzar-backend/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// RedisBridge subscribes to the dispatcher channels on redis and
// re-delivers frames published by peer instances to local connections.
// This is what makes EmitToProfile work across a horizontally scaled
// deployment; single-instance setups simply do not run it.
type RedisBridge struct {
	client     *redis.Client
	dispatcher *Dispatcher
	log        *logger.Logger
}

func NewRedisBridge(client *redis.Client, dispatcher *Dispatcher, log *logger.Logger) *RedisBridge {
	return &RedisBridge{client: client, dispatcher: dispatcher, log: log}
}

func (b *RedisBridge) Run(ctx context.Context) error {
	pubsub := b.client.PSubscribe(ctx, "ws:*")
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if msg == nil {
				continue
			}
			b.dispatcher.deliverBridged(msg.Channel, []byte(msg.Payload))
		}
	}
}
