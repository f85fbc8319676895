// Package events carries row-change notifications between mutating
// services and realtime subscribers. Every write to a synced table
// publishes a ChangeEvent; consumers re-fetch and rebuild rather than
// patching incrementally, so delivery only has to be at-least-once.
package events

import (
	"context"
	"encoding/json"
	"sync"

	pkgredis "github.com/coursekit/core/internal/pkg/redis"
)

const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

// ChangeEvent describes a single row mutation in a synced table.
type ChangeEvent struct {
	Event string          `json:"event"`
	Table string          `json:"table"`
	Scope string          `json:"scope"`
	Row   json.RawMessage `json:"row,omitempty"`
}

// Bus is the publish/subscribe fabric for change events. Subscribers
// receive every event and filter by scope themselves.
type Bus interface {
	Publish(ctx context.Context, ev ChangeEvent) error
	// Subscribe returns a receive channel and a teardown func. After
	// teardown returns, no further events are delivered.
	Subscribe(ctx context.Context) (<-chan ChangeEvent, func())
}

const redisChannel = "ck:changes"

// RedisBus fans change events out across server instances via pub/sub.
type RedisBus struct {
	rc *pkgredis.Client
}

func NewRedisBus(rc *pkgredis.Client) *RedisBus {
	return &RedisBus{rc: rc}
}

func (b *RedisBus) Publish(ctx context.Context, ev ChangeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rc.Publish(ctx, redisChannel, string(data))
}

func (b *RedisBus) Subscribe(ctx context.Context) (<-chan ChangeEvent, func()) {
	pubsub := b.rc.Subscribe(ctx, redisChannel)
	out := make(chan ChangeEvent, 64)

	go func() {
		defer close(out)
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					continue
				}
				select {
				case out <- ev:
				default:
					// slow consumer; it will converge on its next rebuild
				}
			}
		}
	}()

	return out, func() { _ = pubsub.Close() }
}

// MemoryBus is an in-process Bus used in tests and single-node setups.
type MemoryBus struct {
	mu   sync.Mutex
	subs map[int]chan ChangeEvent
	next int
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[int]chan ChangeEvent)}
}

func (b *MemoryBus) Publish(ctx context.Context, ev ChangeEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context) (<-chan ChangeEvent, func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	ch := make(chan ChangeEvent, 64)
	b.subs[id] = ch
	b.mu.Unlock()

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
}
