package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	redisChannelPrefix = "comanda:"
	subscribeTimeout   = 5 * time.Second
)

// bridgeMessage is the body carried by both bridges.
type bridgeMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	At    int64           `json:"at"`
}

func marshalBridge(event string, payload []byte) ([]byte, error) {
	return json.Marshal(bridgeMessage{Event: event, Data: payload, At: time.Now().Unix()})
}

// RedisBridge implements Bridge using Redis pub/sub.
type RedisBridge struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisBridge creates a Redis pub/sub bridge for kitchen events. The
// bridge takes ownership of client.
func NewRedisBridge(client *redis.Client, logger *zap.Logger) *RedisBridge {
	return &RedisBridge{client: client, logger: logger}
}

// Publish publishes an event to the channel's Redis topic.
func (r *RedisBridge) Publish(ctx context.Context, channel, event string, payload []byte) error {
	body, err := marshalBridge(event, payload)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, redisChannelPrefix+channel, body).Err()
}

// Subscribe subscribes to a channel's Redis topic and calls handler for each
// message until cancel is called.
func (r *RedisBridge) Subscribe(channel string, handler func(event string, payload []byte)) (cancel func(), err error) {
	ctx, cancelCtx := context.WithCancel(context.Background())
	pubsub := r.client.Subscribe(ctx, redisChannelPrefix+channel)

	recvCtx, recvCancel := context.WithTimeout(ctx, subscribeTimeout)
	defer recvCancel()
	if _, err = pubsub.Receive(recvCtx); err != nil {
		cancelCtx()
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var m bridgeMessage
				if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
					r.logger.Debug("drop malformed bridge message", zap.String("channel", channel), zap.Error(err))
					continue
				}
				handler(m.Event, m.Data)
			}
		}
	}()
	return cancelCtx, nil
}

// Close closes the Redis client the bridge was built on.
func (r *RedisBridge) Close() error { return r.client.Close() }
