package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"beacon/internal/app/registry"
)

type stubConn struct {
	id string

	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func (s *stubConn) ID() string { return s.id }

func (s *stubConn) Send(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("closed")
	}
	s.frames = append(s.frames, data)
	return nil
}

func (s *stubConn) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *stubConn) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

type capturedPublish struct {
	stream  string
	payload []byte
}

type stubQueue struct {
	publishErr error
	published  []capturedPublish
}

func (q *stubQueue) Publish(ctx context.Context, stream string, payload []byte) error {
	if q.publishErr != nil {
		return q.publishErr
	}
	q.published = append(q.published, capturedPublish{stream: stream, payload: payload})
	return nil
}

func (q *stubQueue) Subscribe(ctx context.Context, stream, group string, handler func(context.Context, string, []byte) error) error {
	<-ctx.Done()
	return ctx.Err()
}

func (q *stubQueue) Acknowledge(ctx context.Context, stream, group, messageID string) error {
	return nil
}

func (q *stubQueue) DeleteMessage(ctx context.Context, stream, messageID string) error {
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifierNotifyReachesSubscribersOnly(t *testing.T) {
	log := discardLogger()
	hub := registry.NewRegistry(log, nil)
	n := NewNotifier(log, hub, &stubQueue{}, "notifications")

	subscriber := &stubConn{id: "sub"}
	bystander := &stubConn{id: "other"}
	hub.JoinRoom(subscriber, TopicRoom("orders"))
	hub.Connect(bystander, "", nil)

	sent := n.Notify(context.Background(), "orders", map[string]any{"order_id": 7})
	if sent != 1 {
		t.Fatalf("Notify sent %d, want 1", sent)
	}
	if len(bystander.frames) != 0 {
		t.Fatalf("bystander received %d frames, want 0", len(bystander.frames))
	}

	var env map[string]any
	if err := json.Unmarshal(subscriber.frames[0], &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env["type"] != "notification" || env["topic"] != "orders" {
		t.Fatalf("envelope = %v", env)
	}
	if env["timestamp"] == nil {
		t.Fatal("envelope missing timestamp")
	}
}

func TestNotifierEnqueue(t *testing.T) {
	log := discardLogger()
	hub := registry.NewRegistry(log, nil)
	q := &stubQueue{}
	n := NewNotifier(log, hub, q, "notifications")

	if err := n.Enqueue(context.Background(), "alerts", map[string]any{"level": "red"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if len(q.published) != 1 {
		t.Fatalf("published %d entries, want 1", len(q.published))
	}
	if q.published[0].stream != "notifications" {
		t.Fatalf("stream = %q", q.published[0].stream)
	}

	var payload NotificationPayload
	if err := json.Unmarshal(q.published[0].payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Topic != "alerts" {
		t.Fatalf("payload topic = %q", payload.Topic)
	}
	if payload.CreatedAt.IsZero() {
		t.Fatal("payload missing created_at")
	}
}

func TestNotifierEnqueueFailure(t *testing.T) {
	log := discardLogger()
	hub := registry.NewRegistry(log, nil)
	q := &stubQueue{publishErr: errors.New("stream down")}
	n := NewNotifier(log, hub, q, "notifications")

	if err := n.Enqueue(context.Background(), "alerts", "x"); err == nil {
		t.Fatal("Enqueue with failing queue returned nil error")
	}
}
