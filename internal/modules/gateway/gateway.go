package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	pkgredis "github.com/coursekit/core/internal/pkg/redis"
	"github.com/gin-gonic/gin"
	socketio "github.com/zishang520/socket.io/v2/socket"
	"go.uber.org/zap"
)

const (
	namespaceWeb = "/web"
	redisChannel = "ck:gateway"

	notifyScopePrefix   = "notify:"
	progressScopePrefix = "progress:"
)

// Message is the envelope used by hub broadcasts and Redis fan-out.
type Message struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
	Room    string      `json:"room,omitempty"`
}

type gatewayPayload struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ScopeWatcher is told when the first client joins a room and when the
// last one leaves, so server-side subscriptions track client interest.
type ScopeWatcher interface {
	Subscribe(scope string)
	Unsubscribe(scope string)
}

type roomChange struct {
	sid  string
	room string
}

// Hub manages the socket.io namespace, scope rooms and cluster fan-out.
type Hub struct {
	mu sync.RWMutex

	sidRooms  map[string]map[string]struct{}
	roomCount map[string]int

	broadcast chan Message
	join      chan roomChange
	leave     chan roomChange

	rc            *pkgredis.Client
	logger        *zap.Logger
	sio           *socketio.Server
	watcher       ScopeWatcher
	tokenResolver func(string) (string, error)
}

// NewHub builds the hub. tokenResolver maps a connection token to a
// user id; connections without a valid token stay anonymous and may
// only join lesson and discussion rooms.
func NewHub(rc *pkgredis.Client, logger *zap.Logger, tokenResolver func(string) (string, error)) *Hub {
	sio := socketio.NewServer(nil, nil)
	h := &Hub{
		sidRooms:      make(map[string]map[string]struct{}),
		roomCount:     make(map[string]int),
		broadcast:     make(chan Message, 256),
		join:          make(chan roomChange, 256),
		leave:         make(chan roomChange, 256),
		rc:            rc,
		logger:        logger,
		sio:           sio,
		tokenResolver: tokenResolver,
	}
	h.registerNamespace()
	return h
}

// SetWatcher wires the live sync controller. Must be called before Run.
func (h *Hub) SetWatcher(w ScopeWatcher) { h.watcher = w }

func (h *Hub) registerNamespace() {
	ns := h.sio.Of(namespaceWeb, nil)
	_ = ns.On("connection", func(args ...any) {
		client, ok := args[0].(*socketio.Socket)
		if !ok {
			return
		}
		sid := string(client.Id())

		userID := ""
		if token := normalizeToken(extractToken(client)); token != "" && h.tokenResolver != nil {
			if id, err := h.tokenResolver(token); err == nil {
				userID = id
			}
		}

		_ = client.Emit("message", gatewayPayload{Type: "GATEWAY_CONNECT", Data: "connected"})

		_ = client.On("join", func(joinArgs ...any) {
			room, ok := roomArg(joinArgs)
			if !ok || !h.mayJoin(room, userID) {
				_ = client.Emit("message", gatewayPayload{Type: "JOIN_DENIED", Data: room})
				return
			}
			client.Join(socketio.Room(room))
			h.join <- roomChange{sid: sid, room: room}
		})

		_ = client.On("leave", func(leaveArgs ...any) {
			room, ok := roomArg(leaveArgs)
			if !ok {
				return
			}
			client.Leave(socketio.Room(room))
			h.leave <- roomChange{sid: sid, room: room}
		})

		_ = client.On("disconnect", func(_ ...any) {
			h.leave <- roomChange{sid: sid, room: ""}
		})
	})
}

// mayJoin gates room access: notification and progress rooms are
// private to their user, content rooms are open (their payloads are
// read-path data the REST API serves anyway).
func (h *Hub) mayJoin(room, userID string) bool {
	if strings.HasPrefix(room, notifyScopePrefix) {
		return userID != "" && room == notifyScopePrefix+userID
	}
	if strings.HasPrefix(room, progressScopePrefix) {
		return userID != "" && room == progressScopePrefix+userID
	}
	return strings.Contains(room, ":")
}

func roomArg(args []any) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	room, ok := args[0].(string)
	room = strings.TrimSpace(room)
	return room, ok && room != ""
}

func extractToken(client *socketio.Socket) string {
	handshake := client.Handshake()
	if handshake == nil {
		return ""
	}
	if token := firstValueFromMultiMap(handshake.Query, "token"); token != "" {
		return token
	}
	return firstValueFromMultiMap(handshake.Headers, "authorization")
}

func firstValueFromMultiMap(values map[string][]string, key string) string {
	for k, list := range values {
		if !strings.EqualFold(strings.TrimSpace(k), key) || len(list) == 0 {
			continue
		}
		if v := strings.TrimSpace(list[0]); v != "" {
			return v
		}
	}
	return ""
}

func normalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}

// Run starts the hub loop and the Redis subscriber.
func (h *Hub) Run(ctx context.Context) {
	if h.rc != nil {
		go h.subscribeRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			h.sio.Close(nil)
			return

		case c := <-h.join:
			h.joinRoom(c)

		case c := <-h.leave:
			h.leaveRoom(c)

		case msg := <-h.broadcast:
			h.deliver(msg)

			if h.rc != nil {
				data, err := json.Marshal(msg)
				if err != nil {
					continue
				}
				if err := h.rc.Publish(ctx, redisChannel, string(data)); err != nil && h.logger != nil {
					h.logger.Warn("gateway publish failed", zap.Error(err))
				}
			}
		}
	}
}

func (h *Hub) joinRoom(c roomChange) {
	h.mu.Lock()
	rooms, ok := h.sidRooms[c.sid]
	if !ok {
		rooms = make(map[string]struct{})
		h.sidRooms[c.sid] = rooms
	}
	if _, already := rooms[c.room]; already {
		h.mu.Unlock()
		return
	}
	rooms[c.room] = struct{}{}
	h.roomCount[c.room]++
	h.mu.Unlock()

	if h.watcher != nil {
		h.watcher.Subscribe(c.room)
	}
}

// leaveRoom with an empty room drops every room of the sid (disconnect).
func (h *Hub) leaveRoom(c roomChange) {
	h.mu.Lock()
	rooms, ok := h.sidRooms[c.sid]
	if !ok {
		h.mu.Unlock()
		return
	}

	var left []string
	if c.room == "" {
		for room := range rooms {
			left = append(left, room)
		}
		delete(h.sidRooms, c.sid)
	} else if _, member := rooms[c.room]; member {
		left = append(left, c.room)
		delete(rooms, c.room)
	}
	for _, room := range left {
		if h.roomCount[room] > 0 {
			h.roomCount[room]--
		}
	}
	h.mu.Unlock()

	if h.watcher != nil {
		for _, room := range left {
			h.watcher.Unsubscribe(room)
		}
	}
}

// Broadcast sends an event to every client in a room, on this instance
// and through Redis on every other one. Satisfies livesync.Broadcaster.
func (h *Hub) Broadcast(room, event string, payload interface{}) {
	h.broadcast <- Message{Event: event, Payload: payload, Room: room}
}

func (h *Hub) deliver(msg Message) {
	ns := h.sio.Of(namespaceWeb, nil)
	if msg.Room == "" {
		ns.Emit("message", gatewayPayload{Type: msg.Event, Data: msg.Payload})
		return
	}
	ns.To(socketio.Room(msg.Room)).Emit("message", gatewayPayload{Type: msg.Event, Data: msg.Payload})
}

// subscribeRedis replays broadcasts from other server instances.
func (h *Hub) subscribeRedis(ctx context.Context) {
	pubsub := h.rc.Subscribe(ctx, redisChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return

		case redisMsg, ok := <-ch:
			if !ok {
				return
			}
			var msg Message
			if err := json.Unmarshal([]byte(redisMsg.Payload), &msg); err != nil {
				continue
			}
			h.deliver(msg)
		}
	}
}

// ClientCount returns connected-room membership: total distinct
// clients for room="", subscribers of one room otherwise.
func (h *Hub) ClientCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if room == "" {
		return len(h.sidRooms)
	}
	return h.roomCount[room]
}

// Handler returns the socket.io HTTP handler mounted at /socket.io.
func (h *Hub) Handler() http.Handler {
	return h.sio.ServeHandler(nil)
}

// RegisterRoutes mounts socket.io and the stats endpoint.
func RegisterRoutes(rg *gin.RouterGroup, hub *Hub) {
	handler := gin.WrapH(hub.Handler())
	rg.Any("/socket.io", handler)
	rg.Any("/socket.io/*any", handler)

	rg.GET("/gateway/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"clients": hub.ClientCount(""),
		})
	})
}
