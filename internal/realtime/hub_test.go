package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testClient(buffer int) *Client {
	c := newClient(nil, nil, nil, zap.NewNop())
	c.send = make(chan WSMessage, buffer)
	return c
}

func drain(c *Client) []WSMessage {
	var out []WSMessage
	for {
		select {
		case m := <-c.send:
			out = append(out, m)
		default:
			return out
		}
	}
}

type fakeBridge struct {
	mu         sync.Mutex
	published  []string
	handlers   map[string]func(string, []byte)
	cancelled  []string
	publishErr error
	failSubs   int
}

func newFakeBridge() *fakeBridge {
	return &fakeBridge{handlers: make(map[string]func(string, []byte))}
}

func (f *fakeBridge) Publish(_ context.Context, channel, event string, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, channel+"/"+event)
	return f.publishErr
}

func (f *fakeBridge) Subscribe(channel string, handler func(string, []byte)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSubs > 0 {
		f.failSubs--
		return nil, errors.New("subscribe refused")
	}
	f.handlers[channel] = handler
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.cancelled = append(f.cancelled, channel)
	}, nil
}

func (f *fakeBridge) Close() error { return nil }

func TestTenantChannel(t *testing.T) {
	assert.Equal(t, "tenant_42", TenantChannel(42))
}

func TestJoinIsIdempotent(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil)
	c := testClient(4)

	hub.Join(c, "tenant_1")
	hub.Join(c, "tenant_1")
	assert.Equal(t, 1, hub.SubscriberCount("tenant_1"))

	hub.Leave(c, "tenant_1")
	hub.Leave(c, "tenant_1")
	assert.Zero(t, hub.SubscriberCount("tenant_1"))
}

func TestPublishReachesOnlyChannelMembers(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil)
	kitchen1, kitchen2 := testClient(4), testClient(4)
	hub.Join(kitchen1, "tenant_1")
	hub.Join(kitchen2, "tenant_2")

	require.NoError(t, hub.Publish(context.Background(), "tenant_1", EventOrderCompleted, 9))

	got := drain(kitchen1)
	require.Len(t, got, 1)
	assert.Equal(t, EventOrderCompleted, got[0].Event)
	assert.JSONEq(t, `9`, string(got[0].Data))
	assert.Empty(t, drain(kitchen2))
}

func TestLateJoinerSeesNoBacklog(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil)
	require.NoError(t, hub.Publish(context.Background(), "tenant_1", EventOrderCreated, map[string]int{"id": 1}))

	c := testClient(4)
	hub.Join(c, "tenant_1")
	assert.Empty(t, drain(c))
}

func TestBroadcastSkipsFullBuffers(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil)
	slow, fast := testClient(1), testClient(4)
	hub.Join(slow, "tenant_1")
	hub.Join(fast, "tenant_1")

	for i := 0; i < 3; i++ {
		hub.Broadcast("tenant_1", EventOrderCompleted, i)
	}
	assert.Len(t, drain(slow), 1)
	assert.Len(t, drain(fast), 3)
}

func TestLeaveAllRemovesEveryChannel(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil)
	c := testClient(4)
	hub.Join(c, "tenant_1")
	hub.Join(c, "tenant_2")

	hub.LeaveAll(c)
	assert.Zero(t, hub.SubscriberCount("tenant_1"))
	assert.Zero(t, hub.SubscriberCount("tenant_2"))
}

func TestBridgeDeliversThroughSubscription(t *testing.T) {
	bridge := newFakeBridge()
	hub := NewHub(zap.NewNop(), bridge)
	c := testClient(4)
	hub.Join(c, "tenant_1")

	require.NoError(t, hub.Publish(context.Background(), "tenant_1", EventOrderCompleted, 5))
	assert.Equal(t, []string{"tenant_1/order_completed"}, bridge.published)
	assert.Empty(t, drain(c), "publish with a bridge must not broadcast locally")

	bridge.handlers["tenant_1"](EventOrderCompleted, json.RawMessage(`5`))
	got := drain(c)
	require.Len(t, got, 1)
	assert.JSONEq(t, `5`, string(got[0].Data))

	hub.Leave(c, "tenant_1")
	assert.Equal(t, []string{"tenant_1"}, bridge.cancelled)
}

func TestBridgeFailureFallsBackToLocal(t *testing.T) {
	bridge := newFakeBridge()
	bridge.publishErr = errors.New("broker down")
	hub := NewHub(zap.NewNop(), bridge)
	c := testClient(4)
	hub.Join(c, "tenant_1")

	err := hub.Publish(context.Background(), "tenant_1", EventOrderCompleted, 5)
	assert.Error(t, err)
	assert.Len(t, drain(c), 1)
}

func TestSubscribeFailureKeepsChannelAlive(t *testing.T) {
	bridge := newFakeBridge()
	bridge.failSubs = 1
	hub := NewHub(zap.NewNop(), bridge)
	first, second := testClient(4), testClient(4)

	hub.Join(first, "tenant_1")
	require.NoError(t, hub.Publish(context.Background(), "tenant_1", EventOrderCreated, 1))
	assert.Len(t, drain(first), 1, "without a subscription the hub delivers locally")

	hub.Join(second, "tenant_1")
	require.Contains(t, bridge.handlers, "tenant_1", "the next join retries the subscription")

	require.NoError(t, hub.Publish(context.Background(), "tenant_1", EventOrderCompleted, 1))
	assert.Empty(t, drain(first))
	bridge.handlers["tenant_1"](EventOrderCompleted, json.RawMessage(`1`))
	assert.Len(t, drain(first), 1)
	assert.Len(t, drain(second), 1)
	assert.Equal(t, []string{"tenant_1/order_created", "tenant_1/order_completed"}, bridge.published)
}

func TestCanJoin(t *testing.T) {
	open := testClient(1)
	assert.True(t, open.canJoin("tenant_3"))
	assert.False(t, open.canJoin(""))

	id := int64(3)
	scoped := testClient(1)
	scoped.tenantID = &id
	assert.True(t, scoped.canJoin("tenant_3"))
	assert.False(t, scoped.canJoin("tenant_4"))
}
