package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"beacon/pkg/logging"
)

// RedisNotificationQueue implements contracts.NotificationQueue on a Redis
// Stream with a consumer group.
type RedisNotificationQueue struct {
	rdb *redis.Client
	log *slog.Logger
}

func NewRedisNotificationQueue(rdb *redis.Client, log *slog.Logger) *RedisNotificationQueue {
	return &RedisNotificationQueue{rdb: rdb, log: log}
}

func streamKey(stream string) string {
	return "stream:" + stream
}

func (q *RedisNotificationQueue) Publish(ctx context.Context, stream string, payload []byte) error {
	return q.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: streamKey(stream),
		MaxLen: 1000,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{"data": payload},
	}).Err()
}

// Subscribe blocks reading the stream until ctx is canceled. Handler errors
// are logged and the entry is left pending for redelivery.
func (q *RedisNotificationQueue) Subscribe(
	ctx context.Context,
	stream string,
	group string,
	handler func(ctx context.Context, messageID string, data []byte) error,
) error {
	topic := streamKey(stream)
	err := q.rdb.XGroupCreateMkStream(ctx, topic, group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	consumerName := uuid.NewString()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		res, err := q.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: consumerName,
			Streams:  []string{topic, ">"},
			Count:    10,
			Block:    2 * time.Second,
		}).Result()
		if err != nil {
			if err == redis.Nil || ctx.Err() != nil {
				continue
			}
			q.log.ErrorContext(ctx, "queue - stream read failed", slog.String("stream", topic), logging.Err(err))
			continue
		}
		for _, s := range res {
			for _, msg := range s.Messages {
				q.deliver(ctx, msg, handler, func(id string) error {
					return q.rdb.XAck(ctx, topic, group, id).Err()
				})
			}
		}
	}
}

// deliver hands one stream entry to handler. Entries without a usable string
// payload are acknowledged and dropped; left alone they would sit in the
// pending list forever, since no claim path exists to recover them. Handler
// errors leave the entry pending for redelivery.
func (q *RedisNotificationQueue) deliver(
	ctx context.Context,
	msg redis.XMessage,
	handler func(ctx context.Context, messageID string, data []byte) error,
	ack func(id string) error,
) {
	raw, ok := msg.Values["data"].(string)
	if !ok {
		q.log.WarnContext(ctx, "queue - entry missing data field, acknowledging",
			slog.String("message_id", msg.ID))
		if err := ack(msg.ID); err != nil {
			q.log.ErrorContext(ctx, "queue - ack of malformed entry failed",
				slog.String("message_id", msg.ID), logging.Err(err))
		}
		return
	}
	if err := handler(ctx, msg.ID, []byte(raw)); err != nil {
		q.log.ErrorContext(ctx, "queue - handler failed",
			slog.String("message_id", msg.ID), logging.Err(err))
	}
}

func (q *RedisNotificationQueue) Acknowledge(ctx context.Context, stream, group, messageID string) error {
	return q.rdb.XAck(ctx, streamKey(stream), group, messageID).Err()
}

func (q *RedisNotificationQueue) DeleteMessage(ctx context.Context, stream, messageID string) error {
	return q.rdb.XDel(ctx, streamKey(stream), messageID).Err()
}
