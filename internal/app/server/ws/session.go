package ws

import (
	"context"
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"beacon/internal/config"
	"beacon/internal/core/contracts"
	"beacon/internal/core/domain"
	"beacon/pkg/logging"
)

// Handler receives one connection's lifecycle. One implementation exists per
// endpoint; mutable per-session state belongs on the implementation, not in
// captured closure variables.
type Handler interface {
	// OnConnect runs after the connection is registered. An error aborts the
	// session; deregistration still runs.
	OnConnect(ctx context.Context, c *Client) error
	// OnMessage receives each successfully parsed inbound envelope. Errors
	// are treated as application bugs: they terminate the session and
	// surface to the caller of Run.
	OnMessage(ctx context.Context, c *Client, msg domain.Inbound) error
	// OnDisconnect always runs on the session's exit path, before the
	// connection is deregistered.
	OnDisconnect(ctx context.Context, c *Client)
}

// Session drives one connection's inbound stream for its entire lifetime.
type Session struct {
	registry contracts.Registry
	cfg      config.WSConfig
	log      *slog.Logger
}

func NewSession(reg contracts.Registry, cfg config.WSConfig, log *slog.Logger) *Session {
	return &Session{registry: reg, cfg: cfg, log: log}
}

// Run registers the connection (optionally into room), invokes the handler's
// lifecycle hooks, and pumps inbound frames until the socket closes, errors,
// or the handler fails. Whatever the exit reason, OnDisconnect runs and the
// connection is removed from the registry and every room, in that order.
//
// Malformed JSON gets a single best-effort error reply and does not close
// the connection. Non-text frames are ignored.
func (s *Session) Run(ctx context.Context, sock *Socket, h Handler, room string, metadata map[string]string) (err error) {
	c := NewClient(ctx, sock, s.cfg.SendTimeout)
	c.transition(StateOpen)
	s.registry.Connect(c, room, metadata)

	defer func() {
		c.transition(StateClosing)
		h.OnDisconnect(ctx, c)
		s.registry.Disconnect(c, room)
		c.Close()
		c.transition(StateClosed)
		s.log.InfoContext(ctx, "session - closed", logging.Connection(c.ID()), logging.Room(room))
	}()

	if err := h.OnConnect(ctx, c); err != nil {
		return err
	}

	limiter := rate.NewLimiter(rate.Limit(s.cfg.MessageRate), s.cfg.MessageBurst)

	for {
		msgType, data, err := sock.ReadMessage()
		if err != nil {
			if IsUnexpectedClose(err) {
				s.log.WarnContext(ctx, "session - unexpected close", logging.Connection(c.ID()), logging.Err(err))
			}
			return nil
		}
		if msgType != websocket.TextMessage {
			continue
		}
		if !limiter.Allow() {
			s.log.DebugContext(ctx, "session - inbound message dropped by limiter", logging.Connection(c.ID()))
			continue
		}

		var msg domain.Inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			s.registry.SendTo(ctx, c, domain.WSError{Error: "Invalid JSON"})
			continue
		}
		if err := h.OnMessage(ctx, c, msg); err != nil {
			s.log.ErrorContext(ctx, "session - message handler failed", logging.Connection(c.ID()), logging.Err(err))
			return err
		}
	}
}
