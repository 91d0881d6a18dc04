package registry

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"beacon/internal/core/contracts"
	"beacon/pkg/logging"
)

// Sink receives delivery counters from broadcasts. The prometheus adapter
// implements it; a nil sink disables reporting.
type Sink interface {
	Delivered(n int)
	Failed(n int)
}

// Registry tracks every live websocket connection and its room memberships.
// Each connection's session loop registers itself on connect and is
// responsible for deregistering on its exit path, so nothing here outlives
// the socket it points at.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]contracts.Client
	rooms map[string]map[string]contracts.Client
	meta  map[string]map[string]string

	log  *slog.Logger
	sink Sink
}

func NewRegistry(log *slog.Logger, sink Sink) *Registry {
	return &Registry{
		conns: make(map[string]contracts.Client),
		rooms: make(map[string]map[string]contracts.Client),
		meta:  make(map[string]map[string]string),
		log:   log,
		sink:  sink,
	}
}

// Connect registers a connection, optionally joining room and attaching
// metadata.
func (r *Registry) Connect(c contracts.Client, room string, metadata map[string]string) {
	r.mu.Lock()
	r.conns[c.ID()] = c
	if len(metadata) > 0 {
		r.meta[c.ID()] = metadata
	}
	if room != "" {
		r.joinLocked(c, room)
	}
	total := len(r.conns)
	r.mu.Unlock()
	r.log.Info("registry - connected", logging.Connection(c.ID()), logging.Room(room), slog.Int("total", total))
}

// Disconnect removes the connection from the global set and from every room
// it belongs to, under one lock so concurrent broadcasts never observe a
// half-removed connection. Unknown connections are a no-op; disconnect races
// with cleanup triggered elsewhere and must stay idempotent.
func (r *Registry) Disconnect(c contracts.Client, room string) {
	id := c.ID()
	r.mu.Lock()
	if _, ok := r.conns[id]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.conns, id)
	delete(r.meta, id)
	for name, members := range r.rooms {
		if _, ok := members[id]; ok {
			delete(members, id)
			if len(members) == 0 {
				delete(r.rooms, name)
			}
		}
	}
	total := len(r.conns)
	r.mu.Unlock()
	r.log.Info("registry - disconnected", logging.Connection(id), logging.Room(room), slog.Int("total", total))
}

// JoinRoom adds a membership. A connection joining a room is registered
// globally as well, keeping "every room member is a registered connection"
// true under any call sequence.
func (r *Registry) JoinRoom(c contracts.Client, room string) {
	r.mu.Lock()
	r.conns[c.ID()] = c
	r.joinLocked(c, room)
	r.mu.Unlock()
	r.log.Debug("registry - joined room", logging.Connection(c.ID()), logging.Room(room))
}

// LeaveRoom removes a membership; leaving the last member deletes the room.
// Leaving a room never joined is a no-op.
func (r *Registry) LeaveRoom(c contracts.Client, room string) {
	r.mu.Lock()
	if members, ok := r.rooms[room]; ok {
		delete(members, c.ID())
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
	r.mu.Unlock()
	r.log.Debug("registry - left room", logging.Connection(c.ID()), logging.Room(room))
}

func (r *Registry) joinLocked(c contracts.Client, room string) {
	if r.rooms[room] == nil {
		r.rooms[room] = make(map[string]contracts.Client)
	}
	r.rooms[room][c.ID()] = c
}

// Broadcast serializes message once and hands it to every target connection.
// room == "" addresses all registered connections; a room literally named
// "broadcast" is an ordinary room and is not special-cased. The target set is
// snapshotted before sending so slow sends never hold the registry lock, at
// the cost that connections added mid-broadcast miss this message. A failing
// peer is logged and skipped, never propagated to the caller or to other
// peers. Returns the number of successful hand-offs.
func (r *Registry) Broadcast(ctx context.Context, message any, room string, exclude contracts.Client) int {
	data, err := json.Marshal(message)
	if err != nil {
		r.log.ErrorContext(ctx, "registry - broadcast marshal failed", logging.Err(err))
		return 0
	}

	r.mu.RLock()
	var targets []contracts.Client
	if room == "" {
		targets = make([]contracts.Client, 0, len(r.conns))
		for _, c := range r.conns {
			targets = append(targets, c)
		}
	} else {
		targets = make([]contracts.Client, 0, len(r.rooms[room]))
		for _, c := range r.rooms[room] {
			targets = append(targets, c)
		}
	}
	r.mu.RUnlock()

	sent, failed := 0, 0
	for _, c := range targets {
		if c.Closed() || (exclude != nil && c.ID() == exclude.ID()) {
			continue
		}
		if err := c.Send(ctx, data); err != nil {
			failed++
			r.log.WarnContext(ctx, "registry - send failed", logging.Connection(c.ID()), logging.Err(err))
			continue
		}
		sent++
	}
	if r.sink != nil {
		r.sink.Delivered(sent)
		r.sink.Failed(failed)
	}
	r.log.DebugContext(ctx, "registry - broadcast", logging.Room(room), slog.Int("sent", sent))
	return sent
}

// SendTo delivers to exactly one connection. False means the connection is
// closed or the send failed; it never panics or propagates peer errors.
func (r *Registry) SendTo(ctx context.Context, c contracts.Client, message any) bool {
	if c == nil || c.Closed() {
		return false
	}
	data, err := json.Marshal(message)
	if err != nil {
		r.log.ErrorContext(ctx, "registry - send marshal failed", logging.Err(err))
		return false
	}
	if err := c.Send(ctx, data); err != nil {
		if r.sink != nil {
			r.sink.Failed(1)
		}
		r.log.WarnContext(ctx, "registry - send failed", logging.Connection(c.ID()), logging.Err(err))
		return false
	}
	return true
}

// ConnectionCount, RoomCount and Rooms are point-in-time snapshots.

func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *Registry) RoomCount(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}

func (r *Registry) Rooms() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.rooms))
	for name := range r.rooms {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// CloseAll force-closes every registered connection. Each session loop then
// unwinds through its own deregistration path.
func (r *Registry) CloseAll() {
	r.mu.RLock()
	targets := make([]contracts.Client, 0, len(r.conns))
	for _, c := range r.conns {
		targets = append(targets, c)
	}
	r.mu.RUnlock()
	for _, c := range targets {
		c.Close()
	}
	r.log.Info("registry - closed all connections", slog.Int("count", len(targets)))
}
