// Package livesync keeps connected clients converged on shared state.
// One subscription per scope watches the change bus; any matching
// insert/update/delete triggers a full re-fetch through the scope's
// registered fetcher and a broadcast of the rebuilt payload. There is
// no incremental patching: rebuilds are idempotent, so out-of-order
// events self-correct on the next one (last fetch wins).
package livesync

import (
	"context"
	"strings"
	"sync"

	"github.com/coursekit/core/internal/pkg/events"
	"go.uber.org/zap"
)

// FetchFunc rebuilds the full payload for one scope.
type FetchFunc func(ctx context.Context, scope string) (interface{}, error)

// Broadcaster delivers a rebuilt payload to every client in a room.
// Room names are scope strings.
type Broadcaster interface {
	Broadcast(room, event string, payload interface{})
}

const syncEvent = "sync"

type subscription struct {
	refs   int
	cancel context.CancelFunc
	stop   func()
	done   chan struct{}
}

type Controller struct {
	bus      events.Bus
	out      Broadcaster
	log      *zap.Logger
	mu       sync.Mutex
	subs     map[string]*subscription
	fetchers map[string]FetchFunc
}

func NewController(bus events.Bus, out Broadcaster, log *zap.Logger) *Controller {
	return &Controller{
		bus:      bus,
		out:      out,
		log:      log,
		subs:     make(map[string]*subscription),
		fetchers: make(map[string]FetchFunc),
	}
}

// RegisterFetcher binds a scope prefix ("lesson", "discussion",
// "notify") to the func that rebuilds its payload.
func (c *Controller) RegisterFetcher(prefix string, fn FetchFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchers[prefix] = fn
}

// Subscribe moves a scope from Idle to Subscribed. Further calls for
// the same scope share the existing watcher; each must be balanced by
// an Unsubscribe.
func (c *Controller) Subscribe(scope string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if sub, ok := c.subs[scope]; ok {
		sub.refs++
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch, stop := c.bus.Subscribe(ctx)
	sub := &subscription{refs: 1, cancel: cancel, stop: stop, done: make(chan struct{})}
	c.subs[scope] = sub
	go c.watch(ctx, scope, ch, sub)
}

// Unsubscribe releases one reference. When the last holder leaves, the
// scope returns to Idle: the watcher goroutine exits and no rebuild
// fires afterwards.
func (c *Controller) Unsubscribe(scope string) {
	c.mu.Lock()
	sub, ok := c.subs[scope]
	if !ok {
		c.mu.Unlock()
		return
	}
	sub.refs--
	if sub.refs > 0 {
		c.mu.Unlock()
		return
	}
	delete(c.subs, scope)
	c.mu.Unlock()

	sub.cancel()
	sub.stop()
	<-sub.done
}

// Subscribed reports whether the scope currently has a live watcher.
func (c *Controller) Subscribed(scope string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.subs[scope]
	return ok
}

// Close tears down every scope.
func (c *Controller) Close() {
	c.mu.Lock()
	subs := c.subs
	c.subs = make(map[string]*subscription)
	c.mu.Unlock()

	for _, sub := range subs {
		sub.cancel()
		sub.stop()
		<-sub.done
	}
}

func (c *Controller) watch(ctx context.Context, scope string, ch <-chan events.ChangeEvent, sub *subscription) {
	defer close(sub.done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ev.Scope != scope {
				continue
			}
			c.rebuild(ctx, scope)
		}
	}
}

func (c *Controller) rebuild(ctx context.Context, scope string) {
	prefix, _, _ := strings.Cut(scope, ":")
	c.mu.Lock()
	fn := c.fetchers[prefix]
	c.mu.Unlock()
	if fn == nil {
		return
	}

	payload, err := fn(ctx, scope)
	if err != nil {
		if c.log != nil {
			c.log.Warn("livesync rebuild failed", zap.String("scope", scope), zap.Error(err))
		}
		return
	}
	if ctx.Err() != nil {
		return
	}
	c.out.Broadcast(scope, syncEvent, payload)
}
