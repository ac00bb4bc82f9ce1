package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Events published to kitchen channels.
const (
	EventOrderCreated   = "order_created"
	EventOrderCompleted = "order_completed"
)

// TenantChannel returns the channel key kitchen clients of a tenant join.
func TenantChannel(tenantID int64) string {
	return fmt.Sprintf("tenant_%d", tenantID)
}

// Bridge carries events between server instances. Neither implementation
// persists messages: a subscriber only sees what is published while it is
// subscribed.
type Bridge interface {
	Publish(ctx context.Context, channel, event string, payload []byte) error
	Subscribe(channel string, handler func(event string, payload []byte)) (cancel func(), err error)
	Close() error
}

// Hub maintains channel -> set of connections and broadcasts messages.
// With a Bridge, Publish goes through the bridge and the bridge subscription
// performs the local broadcast, so every instance delivers exactly once.
type Hub struct {
	// channel -> map[clientID]*Client
	channels map[string]map[string]*Client
	subs     map[string]func() // cancel bridge subscription per channel
	mu       sync.RWMutex
	logger   *zap.Logger
	bridge   Bridge
}

// NewHub creates a hub. bridge may be nil for a single instance.
func NewHub(logger *zap.Logger, bridge Bridge) *Hub {
	return &Hub{
		channels: make(map[string]map[string]*Client),
		subs:     make(map[string]func()),
		logger:   logger,
		bridge:   bridge,
	}
}

// Join adds a client to a channel. Joining twice is a no-op. With a bridge,
// a channel without a live subscription gets one here; a failed attempt is
// retried on the next Join and Publish delivers locally in the meantime.
func (h *Hub) Join(c *Client, channel string) {
	h.mu.Lock()
	members := h.channels[channel]
	if members == nil {
		members = make(map[string]*Client)
		h.channels[channel] = members
	}
	members[c.ID] = c
	c.channels[channel] = struct{}{}
	_, subscribed := h.subs[channel]
	h.mu.Unlock()
	h.logger.Debug("client joined channel", zap.String("client_id", c.ID), zap.String("channel", channel))

	if h.bridge != nil && !subscribed {
		h.subscribe(channel)
	}
}

// subscribe opens the bridge subscription for channel outside h.mu; the
// bridge may block on the network.
func (h *Hub) subscribe(channel string) {
	cancel, err := h.bridge.Subscribe(channel, func(event string, payload []byte) {
		h.Broadcast(channel, event, json.RawMessage(payload))
	})
	if err != nil {
		h.logger.Warn("bridge subscribe failed, delivering locally", zap.String("channel", channel), zap.Error(err))
		return
	}
	h.mu.Lock()
	_, taken := h.subs[channel]
	_, live := h.channels[channel]
	if taken || !live {
		h.mu.Unlock()
		cancel()
		return
	}
	h.subs[channel] = cancel
	h.mu.Unlock()
}

// Leave removes a client from a channel. Leaving a channel the client is not
// in is a no-op. Cancels the bridge subscription when the last client leaves.
func (h *Hub) Leave(c *Client, channel string) {
	h.mu.Lock()
	h.leaveLocked(c, channel)
	h.mu.Unlock()
	h.logger.Debug("client left channel", zap.String("client_id", c.ID), zap.String("channel", channel))
}

// LeaveAll removes a client from every channel it joined.
func (h *Hub) LeaveAll(c *Client) {
	h.mu.Lock()
	for channel := range c.channels {
		h.leaveLocked(c, channel)
	}
	h.mu.Unlock()
}

func (h *Hub) leaveLocked(c *Client, channel string) {
	delete(c.channels, channel)
	m, ok := h.channels[channel]
	if !ok {
		return
	}
	delete(m, c.ID)
	if len(m) > 0 {
		return
	}
	delete(h.channels, channel)
	if cancel, ok := h.subs[channel]; ok {
		cancel()
		delete(h.subs, channel)
	}
}

// Broadcast sends a message to all local clients of a channel. Clients whose
// send buffer is full are skipped.
func (h *Hub) Broadcast(channel, event string, payload interface{}) {
	data, err := encode(payload)
	if err != nil {
		h.logger.Warn("encode event", zap.String("event", event), zap.Error(err))
		return
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.channels[channel] {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// Publish delivers an event to every subscriber of channel on every
// instance. Delivery is best effort. Local clients get the event from the
// bridge subscription; without one, or when the bridge rejects the message,
// the hub broadcasts locally itself.
func (h *Hub) Publish(ctx context.Context, channel, event string, payload interface{}) error {
	data, err := encode(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}
	if h.bridge == nil {
		h.Broadcast(channel, event, data)
		return nil
	}
	h.mu.RLock()
	_, subscribed := h.subs[channel]
	h.mu.RUnlock()

	if err := h.bridge.Publish(ctx, channel, event, data); err != nil {
		h.logger.Warn("bridge publish failed, broadcasting locally",
			zap.String("channel", channel), zap.String("event", event), zap.Error(err))
		h.Broadcast(channel, event, data)
		return err
	}
	if !subscribed {
		h.Broadcast(channel, event, data)
	}
	return nil
}

// SubscriberCount returns the number of local clients in a channel.
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

func encode(payload interface{}) (json.RawMessage, error) {
	switch v := payload.(type) {
	case json.RawMessage:
		return v, nil
	case []byte:
		return v, nil
	default:
		return json.Marshal(payload)
	}
}
