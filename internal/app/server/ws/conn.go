package ws

import (
	"time"

	"github.com/gorilla/websocket"
)

// Socket is a thin wrapper around one upgraded websocket connection. It owns
// the deadline discipline so callers never touch the raw conn.
type Socket struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
}

func NewSocket(conn *websocket.Conn, readLimit int64, writeTimeout time.Duration) *Socket {
	// Protects against memory exhaustion from oversized frames.
	conn.SetReadLimit(readLimit)
	return &Socket{conn: conn, writeTimeout: writeTimeout}
}

// ReadMessage blocks until the next frame, a close frame, or a transport
// error. Closing the underlying connection unblocks it.
func (s *Socket) ReadMessage() (int, []byte, error) {
	return s.conn.ReadMessage()
}

func (s *Socket) WriteText(data []byte) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Socket) Close() error {
	return s.conn.Close()
}

// IsUnexpectedClose reports whether err is anything other than a clean peer
// closure.
func IsUnexpectedClose(err error) bool {
	return websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure)
}
