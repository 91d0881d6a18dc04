package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"beacon/internal/core/contracts"
	"beacon/internal/core/services"
	"beacon/pkg/logging"
)

// NotificationWorker consumes the notification stream and fans entries out to
// topic subscribers. Entries are only ACKed after a successful broadcast, so a
// crashed worker leaves them pending for redelivery.
type NotificationWorker struct {
	log      *slog.Logger
	queue    contracts.NotificationQueue
	notifier *services.Notifier
	stream   string
	group    string
}

func NewNotificationWorker(
	log *slog.Logger,
	queue contracts.NotificationQueue,
	notifier *services.Notifier,
	stream string,
	group string,
) *NotificationWorker {
	return &NotificationWorker{
		log:      log,
		queue:    queue,
		notifier: notifier,
		stream:   stream,
		group:    group,
	}
}

// Run blocks consuming the stream until ctx is canceled.
func (w *NotificationWorker) Run(ctx context.Context) error {
	w.log.InfoContext(ctx, "worker - run - subscribing to stream", "stream", w.stream, "group", w.group)
	return w.queue.Subscribe(ctx, w.stream, w.group, w.ProcessMessage)
}

func (w *NotificationWorker) ProcessMessage(ctx context.Context, messageID string, raw []byte) error {
	var payload services.NotificationPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		w.log.ErrorContext(ctx, "worker - process message - wrong payload", "message_id", messageID, logging.Err(err))
		// A malformed entry will never parse; ACK it so it does not stay
		// pending forever.
		if ackErr := w.queue.Acknowledge(ctx, w.stream, w.group, messageID); ackErr != nil {
			w.log.ErrorContext(ctx, "worker - process message - acknowledge failed", "message_id", messageID, logging.Err(ackErr))
		}
		return err
	}

	sent := w.notifier.Notify(ctx, payload.Topic, payload.Data)
	w.log.InfoContext(ctx, "worker - process message - delivered",
		"message_id", messageID, logging.Topic(payload.Topic), slog.Int("sent", sent))

	if err := w.queue.Acknowledge(ctx, w.stream, w.group, messageID); err != nil {
		w.log.ErrorContext(ctx, "worker - process message - acknowledge failed", "message_id", messageID, logging.Err(err))
		return err
	}
	if err := w.queue.DeleteMessage(ctx, w.stream, messageID); err != nil {
		// Already ACKed; trimming is best effort.
		w.log.ErrorContext(ctx, "worker - process message - delete failed", "message_id", messageID, logging.Err(err))
	}
	return nil
}
