package contracts

import "context"

// Client is the minimal surface the registry needs to talk to one live
// websocket connection. The session loop owns the concrete connection; the
// registry only ever holds this non-owning view of it.
type Client interface {
	// ID is stable for the connection's lifetime and never reused.
	ID() string
	// Send hands a serialized frame to the connection. It returns an error
	// when the connection is closed or the outbound queue cannot accept the
	// frame within the configured send timeout.
	Send(ctx context.Context, data []byte) error
	Closed() bool
	Close()
}

// Registry is the single source of truth for who is connected and in which
// rooms. All methods are safe for concurrent use from any goroutine.
type Registry interface {
	// Connect registers a connection, optionally joining room and attaching
	// metadata. room == "" means no initial room.
	Connect(c Client, room string, metadata map[string]string)
	// Disconnect removes the connection from the global set and from every
	// room it belongs to. Calling it for an unknown connection is a no-op.
	Disconnect(c Client, room string)
	// JoinRoom / LeaveRoom manage membership independent of registration.
	// Leaving the last member deletes the room.
	JoinRoom(c Client, room string)
	LeaveRoom(c Client, room string)
	// Broadcast serializes message once and delivers it to every member of
	// room (or to every registered connection when room == ""), skipping
	// exclude and connections that are already closed. It returns the number
	// of connections the frame was handed to successfully. Delivery order is
	// FIFO per recipient only; the target set is a snapshot taken at call
	// time, so connections added mid-broadcast do not receive this message.
	Broadcast(ctx context.Context, message any, room string, exclude Client) int
	// SendTo delivers to exactly one connection. False means closed or failed.
	SendTo(ctx context.Context, c Client, message any) bool
	ConnectionCount() int
	RoomCount(room string) int
	Rooms() []string
	// CloseAll force-closes every registered connection, used by graceful
	// shutdown to drain session loops.
	CloseAll()
}
