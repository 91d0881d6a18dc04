package ws

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"beacon/internal/core/domain"
)

// Connection state machine. Transitions only move forward; Closed is
// terminal and a new physical connection always gets a new Client.
const (
	StateConnecting int32 = iota
	StateOpen
	StateClosing
	StateClosed
)

var errSendTimeout = errors.New("send queue full")

// Client is the registry-facing handle for one live connection. The session
// loop that created it is its sole owner; the registry only borrows it.
type Client struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	sock   *Socket
	out    chan []byte
	state  atomic.Int32
	once   sync.Once

	sendTimeout time.Duration
}

func NewClient(parent context.Context, sock *Socket, sendTimeout time.Duration) *Client {
	ctx, cancel := context.WithCancel(parent)
	c := &Client{
		id:          uuid.NewString(),
		ctx:         ctx,
		cancel:      cancel,
		sock:        sock,
		out:         make(chan []byte, 256),
		sendTimeout: sendTimeout,
	}
	go c.writeLoop()
	return c
}

func (c *Client) ID() string { return c.id }

// Send enqueues one frame for the write loop. The enqueue wait is bounded so
// a stalled peer with a full queue cannot hold a broadcast open indefinitely.
func (c *Client) Send(ctx context.Context, data []byte) error {
	if c.Closed() {
		return domain.ErrConnectionGone
	}
	timer := time.NewTimer(c.sendTimeout)
	defer timer.Stop()
	select {
	case c.out <- data:
		return nil
	case <-c.ctx.Done():
		return domain.ErrConnectionGone
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return errSendTimeout
	}
}

func (c *Client) Closed() bool {
	return c.state.Load() >= StateClosing || c.ctx.Err() != nil
}

// Close is idempotent. The outbound channel is never closed; the write loop
// exits on context cancellation, which avoids racing in-flight Sends.
func (c *Client) Close() {
	c.once.Do(func() {
		c.transition(StateClosing)
		c.cancel()
		_ = c.sock.Close()
	})
}

// transition advances the state machine, never backwards.
func (c *Client) transition(state int32) {
	for {
		cur := c.state.Load()
		if cur >= state {
			return
		}
		if c.state.CompareAndSwap(cur, state) {
			return
		}
	}
}

func (c *Client) State() int32 { return c.state.Load() }

func (c *Client) writeLoop() {
	defer c.Close()
	for {
		select {
		case <-c.ctx.Done():
			return
		case data := <-c.out:
			if err := c.sock.WriteText(data); err != nil {
				return
			}
		}
	}
}
