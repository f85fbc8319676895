package livesync

import (
	"context"
	"testing"
	"time"

	"github.com/coursekit/core/internal/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type broadcastCall struct {
	Room    string
	Event   string
	Payload interface{}
}

type captureBroadcaster struct {
	calls chan broadcastCall
}

func newCapture() *captureBroadcaster {
	return &captureBroadcaster{calls: make(chan broadcastCall, 16)}
}

func (c *captureBroadcaster) Broadcast(room, event string, payload interface{}) {
	c.calls <- broadcastCall{Room: room, Event: event, Payload: payload}
}

func (c *captureBroadcaster) wait(t *testing.T) broadcastCall {
	t.Helper()
	select {
	case call := <-c.calls:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("no broadcast arrived")
		return broadcastCall{}
	}
}

func (c *captureBroadcaster) none(t *testing.T) {
	t.Helper()
	select {
	case call := <-c.calls:
		t.Fatalf("unexpected broadcast to %s", call.Room)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRebuildOnMatchingScope(t *testing.T) {
	bus := events.NewMemoryBus()
	out := newCapture()
	ctrl := NewController(bus, out, nil)
	defer ctrl.Close()

	ctrl.RegisterFetcher("lesson", func(ctx context.Context, scope string) (interface{}, error) {
		return map[string]string{"scope": scope}, nil
	})

	scope := events.LessonScope("l1")
	ctrl.Subscribe(scope)
	require.True(t, ctrl.Subscribed(scope))

	require.NoError(t, bus.Publish(context.Background(), events.ChangeEvent{
		Event: events.EventInsert,
		Table: "lesson_comments",
		Scope: scope,
	}))

	call := out.wait(t)
	assert.Equal(t, scope, call.Room)
	assert.Equal(t, "sync", call.Event)
	assert.Equal(t, map[string]string{"scope": scope}, call.Payload)
}

func TestIgnoresOtherScopes(t *testing.T) {
	bus := events.NewMemoryBus()
	out := newCapture()
	ctrl := NewController(bus, out, nil)
	defer ctrl.Close()

	ctrl.RegisterFetcher("lesson", func(ctx context.Context, scope string) (interface{}, error) {
		return "payload", nil
	})

	ctrl.Subscribe(events.LessonScope("l1"))
	require.NoError(t, bus.Publish(context.Background(), events.ChangeEvent{
		Event: events.EventInsert,
		Scope: events.LessonScope("l2"),
	}))
	out.none(t)
}

func TestUnsubscribeStopsRebuilds(t *testing.T) {
	bus := events.NewMemoryBus()
	out := newCapture()
	ctrl := NewController(bus, out, nil)

	ctrl.RegisterFetcher("notify", func(ctx context.Context, scope string) (interface{}, error) {
		return "payload", nil
	})

	scope := events.NotifyScope("u1")
	ctrl.Subscribe(scope)
	ctrl.Unsubscribe(scope)
	assert.False(t, ctrl.Subscribed(scope))

	require.NoError(t, bus.Publish(context.Background(), events.ChangeEvent{
		Event: events.EventUpdate,
		Scope: scope,
	}))
	out.none(t)
}

func TestSubscribeRefcounts(t *testing.T) {
	bus := events.NewMemoryBus()
	out := newCapture()
	ctrl := NewController(bus, out, nil)
	defer ctrl.Close()

	ctrl.RegisterFetcher("discussion", func(ctx context.Context, scope string) (interface{}, error) {
		return "payload", nil
	})

	scope := events.DiscussionScope("c1")
	ctrl.Subscribe(scope)
	ctrl.Subscribe(scope)
	ctrl.Unsubscribe(scope)
	assert.True(t, ctrl.Subscribed(scope))

	require.NoError(t, bus.Publish(context.Background(), events.ChangeEvent{
		Event: events.EventDelete,
		Scope: scope,
	}))
	call := out.wait(t)
	assert.Equal(t, scope, call.Room)

	ctrl.Unsubscribe(scope)
	assert.False(t, ctrl.Subscribed(scope))
}

func TestUnknownPrefixIsDropped(t *testing.T) {
	bus := events.NewMemoryBus()
	out := newCapture()
	ctrl := NewController(bus, out, nil)
	defer ctrl.Close()

	scope := "mystery:1"
	ctrl.Subscribe(scope)
	require.NoError(t, bus.Publish(context.Background(), events.ChangeEvent{
		Event: events.EventInsert,
		Scope: scope,
	}))
	out.none(t)
}
