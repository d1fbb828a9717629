package chat

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nklyy/chats/internal/core"
)

var errConnClosed = errors.New("connection closed")

const (
	sendBuffer = 32
	writeWait  = 5 * time.Second
	readLimit  = 32768
)

// wsConn wraps a gorilla conn with a buffered outbound queue. It is the
// delivery handle the hub holds for this connection.
type wsConn struct {
	ws   *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newWSConn(ws *websocket.Conn) *wsConn {
	return &wsConn{
		ws:   ws,
		send: make(chan core.Frame, sendBuffer),
	}
}

// TrySend queues a frame without blocking. A full queue returns
// ErrBackpressure and the frame is dropped.
func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errConnClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.ws.Close()
	c.mu.Unlock()
}

// writeClose sends a close control frame. Safe concurrently with the write
// pump; gorilla serializes control writes internally.
func (c *wsConn) writeClose(code int, reason string) error {
	msg := websocket.FormatCloseMessage(code, reason)
	return c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
