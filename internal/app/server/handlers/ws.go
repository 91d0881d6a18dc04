package handlers

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"beacon/internal/app/server/ws"
	"beacon/internal/config"
	"beacon/internal/core/contracts"
	"beacon/internal/core/domain"
	"beacon/internal/core/services"
	"beacon/pkg/logging"
)

// WSHandler exposes the four realtime endpoints. Each endpoint upgrades the
// request and hands the connection to the session loop with its own
// per-connection ws.Handler.
type WSHandler struct {
	registry contracts.Registry
	session  *ws.Session
	cfg      config.WSConfig
}

func NewWSHandler(reg contracts.Registry, session *ws.Session, cfg config.WSConfig) *WSHandler {
	return &WSHandler{registry: reg, session: session, cfg: cfg}
}

// upgrade performs the websocket handshake and returns a session context that
// survives the HTTP handler returning.
func (h *WSHandler) upgrade(w http.ResponseWriter, r *http.Request) (*ws.Socket, context.Context, bool) {
	log := logging.FromContext(r.Context())
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true // tighten later
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.ErrorContext(r.Context(), "ws handler - upgrade failed", logging.Err(err))
		return nil, nil, false
	}
	// The request context dies when the handler returns; the session outlives it.
	ctx := logging.WithContext(context.WithoutCancel(r.Context()), log)
	return ws.NewSocket(conn, h.cfg.ReadLimit, h.cfg.WriteTimeout), ctx, true
}

// Echo sends every received envelope straight back to the sender.
func (h *WSHandler) Echo(w http.ResponseWriter, r *http.Request) {
	sock, ctx, ok := h.upgrade(w, r)
	if !ok {
		return
	}
	h.run(ctx, sock, &echoHandler{registry: h.registry}, "")
}

// Broadcast fans every received envelope out to all connected clients,
// including the sender.
func (h *WSHandler) Broadcast(w http.ResponseWriter, r *http.Request) {
	sock, ctx, ok := h.upgrade(w, r)
	if !ok {
		return
	}
	h.run(ctx, sock, &broadcastHandler{registry: h.registry}, "")
}

// Room is room-scoped chat: messages reach only members of the same room.
func (h *WSHandler) Room(w http.ResponseWriter, r *http.Request) {
	room := r.PathValue("room")
	if room == "" {
		room = "default"
	}
	sock, ctx, ok := h.upgrade(w, r)
	if !ok {
		return
	}
	h.run(ctx, sock, &roomHandler{registry: h.registry, room: room}, room)
}

// Notifications delivers server-push events for the topics the client
// subscribes to.
func (h *WSHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	sock, ctx, ok := h.upgrade(w, r)
	if !ok {
		return
	}
	h.run(ctx, sock, &notificationsHandler{
		registry: h.registry,
		topics:   make(map[string]struct{}),
	}, "")
}

func (h *WSHandler) run(ctx context.Context, sock *ws.Socket, handler ws.Handler, room string) {
	log := logging.FromContext(ctx)
	if err := h.session.Run(ctx, sock, handler, room, nil); err != nil {
		log.ErrorContext(ctx, "ws handler - session failed", logging.Room(room), logging.Err(err))
	}
}

type echoHandler struct {
	registry contracts.Registry
}

func (e *echoHandler) OnConnect(ctx context.Context, c *ws.Client) error { return nil }

func (e *echoHandler) OnMessage(ctx context.Context, c *ws.Client, msg domain.Inbound) error {
	e.registry.SendTo(ctx, c, domain.EchoMessage{Type: domain.TypeEcho, Data: msg})
	return nil
}

func (e *echoHandler) OnDisconnect(ctx context.Context, c *ws.Client) {}

type broadcastHandler struct {
	registry contracts.Registry
}

func (b *broadcastHandler) OnConnect(ctx context.Context, c *ws.Client) error { return nil }

func (b *broadcastHandler) OnMessage(ctx context.Context, c *ws.Client, msg domain.Inbound) error {
	b.registry.Broadcast(ctx, domain.BroadcastMessage{
		Type:      domain.TypeBroadcast,
		Data:      msg,
		Timestamp: domain.Timestamp(time.Now()),
	}, "", nil)
	return nil
}

func (b *broadcastHandler) OnDisconnect(ctx context.Context, c *ws.Client) {}

type roomHandler struct {
	registry contracts.Registry
	room     string
}

func (rh *roomHandler) OnConnect(ctx context.Context, c *ws.Client) error {
	rh.registry.Broadcast(ctx, domain.RoomEvent{
		Type:      domain.TypeUserJoined,
		Room:      rh.room,
		Users:     rh.registry.RoomCount(rh.room),
		Timestamp: domain.Timestamp(time.Now()),
	}, rh.room, c)
	rh.registry.SendTo(ctx, c, domain.WelcomeMessage{
		Type:  domain.TypeWelcome,
		Room:  rh.room,
		Users: rh.registry.RoomCount(rh.room),
	})
	return nil
}

func (rh *roomHandler) OnMessage(ctx context.Context, c *ws.Client, msg domain.Inbound) error {
	switch action := msg.Action("message"); action {
	case "message":
		rh.registry.Broadcast(ctx, domain.RoomMessage{
			Type:      domain.TypeRoomMessage,
			Room:      rh.room,
			Text:      msg.Text(),
			Timestamp: domain.Timestamp(time.Now()),
		}, rh.room, nil)
	case "list_users":
		rh.registry.SendTo(ctx, c, domain.UserCountMessage{
			Type:  domain.TypeUserCount,
			Room:  rh.room,
			Count: rh.registry.RoomCount(rh.room),
		})
	default:
		rh.registry.SendTo(ctx, c, domain.WSError{Error: "Unknown action: " + action})
	}
	return nil
}

func (rh *roomHandler) OnDisconnect(ctx context.Context, c *ws.Client) {
	// Deregistration has not happened yet, so the departing connection is
	// still counted; report the size the room is about to have.
	rh.registry.Broadcast(ctx, domain.RoomEvent{
		Type:      domain.TypeUserLeft,
		Room:      rh.room,
		Users:     rh.registry.RoomCount(rh.room) - 1,
		Timestamp: domain.Timestamp(time.Now()),
	}, rh.room, c)
}

type notificationsHandler struct {
	registry contracts.Registry

	mu     sync.Mutex
	topics map[string]struct{}
}

func (nh *notificationsHandler) OnConnect(ctx context.Context, c *ws.Client) error {
	nh.registry.SendTo(ctx, c, domain.ConnectedMessage{
		Type:    domain.TypeConnected,
		Message: "Connected to notifications. Subscribe to topics using {action: 'subscribe', topics: [...]}",
	})
	return nil
}

func (nh *notificationsHandler) OnMessage(ctx context.Context, c *ws.Client, msg domain.Inbound) error {
	switch action := msg.Action(""); action {
	case "subscribe":
		nh.mu.Lock()
		for _, topic := range msg.Topics() {
			nh.topics[topic] = struct{}{}
			nh.registry.JoinRoom(c, services.TopicRoom(topic))
		}
		state := nh.snapshot()
		nh.mu.Unlock()
		nh.registry.SendTo(ctx, c, domain.SubscriptionState{Type: domain.TypeSubscribed, Topics: state})
	case "unsubscribe":
		nh.mu.Lock()
		for _, topic := range msg.Topics() {
			delete(nh.topics, topic)
			nh.registry.LeaveRoom(c, services.TopicRoom(topic))
		}
		state := nh.snapshot()
		nh.mu.Unlock()
		nh.registry.SendTo(ctx, c, domain.SubscriptionState{Type: domain.TypeUnsubscribed, Topics: state})
	case "ping":
		nh.registry.SendTo(ctx, c, domain.PongMessage{Type: domain.TypePong})
	default:
		nh.registry.SendTo(ctx, c, domain.WSError{Error: "Unknown action: " + action})
	}
	return nil
}

func (nh *notificationsHandler) OnDisconnect(ctx context.Context, c *ws.Client) {
	nh.mu.Lock()
	defer nh.mu.Unlock()
	for topic := range nh.topics {
		nh.registry.LeaveRoom(c, services.TopicRoom(topic))
	}
	clear(nh.topics)
}

// snapshot returns the current topic set sorted; callers hold mu.
func (nh *notificationsHandler) snapshot() []string {
	topics := make([]string, 0, len(nh.topics))
	for t := range nh.topics {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}
