package contracts

import "context"

// NotificationQueue decouples the HTTP publish path from websocket fan-out.
// Backed by a Redis Stream with a consumer group.
type NotificationQueue interface {
	// Publish appends a payload to the stream.
	Publish(ctx context.Context, stream string, payload []byte) error
	// Subscribe reads the stream on behalf of group and invokes handler for
	// each entry. It blocks until ctx is canceled.
	Subscribe(ctx context.Context, stream, group string, handler func(ctx context.Context, messageID string, data []byte) error) error
	// Acknowledge marks an entry as processed (XACK).
	Acknowledge(ctx context.Context, stream, group, messageID string) error
	// DeleteMessage trims a processed entry from the stream (XDEL).
	DeleteMessage(ctx context.Context, stream, messageID string) error
}
