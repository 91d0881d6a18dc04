package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"beacon/internal/core/contracts"
	"beacon/internal/core/domain"
	"beacon/pkg/logging"
)

// TopicRoom maps a notification topic to the room its subscribers sit in.
func TopicRoom(topic string) string {
	return "notifications:" + topic
}

// NotificationPayload is the stream entry format for queued notifications.
type NotificationPayload struct {
	Topic     string    `json:"topic"`
	Data      any       `json:"data"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier delivers server-push notifications to topic subscribers, either
// directly in-process or through the stream queue for asynchronous delivery.
type Notifier struct {
	registry contracts.Registry
	queue    contracts.NotificationQueue
	stream   string
	log      *slog.Logger
}

func NewNotifier(log *slog.Logger, reg contracts.Registry, queue contracts.NotificationQueue, stream string) *Notifier {
	return &Notifier{
		log:      log,
		registry: reg,
		queue:    queue,
		stream:   stream,
	}
}

// Notify fans a notification envelope out to every subscriber of topic and
// returns the number of clients notified.
func (n *Notifier) Notify(ctx context.Context, topic string, data any) int {
	sent := n.registry.Broadcast(ctx, domain.Notification{
		Type:      domain.TypeNotification,
		Topic:     topic,
		Data:      data,
		Timestamp: domain.Timestamp(time.Now()),
	}, TopicRoom(topic), nil)
	n.log.DebugContext(ctx, "notifier - delivered", logging.Topic(topic), slog.Int("sent", sent))
	return sent
}

// Enqueue hands a notification to the stream queue; a worker picks it up and
// calls Notify.
func (n *Notifier) Enqueue(ctx context.Context, topic string, data any) error {
	raw, err := json.Marshal(NotificationPayload{
		Topic:     topic,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	if err := n.queue.Publish(ctx, n.stream, raw); err != nil {
		n.log.ErrorContext(ctx, "notifier - enqueue failed", logging.Topic(topic), logging.Err(err))
		return err
	}
	n.log.InfoContext(ctx, "notifier - enqueued", logging.Topic(topic))
	return nil
}
