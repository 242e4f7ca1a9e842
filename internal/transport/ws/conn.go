package ws

import (
	"time"

	"github.com/gorilla/websocket"
)

// wsConn serializes writes to one websocket connection. gorilla/websocket
// allows a single concurrent writer, so Send takes the semaphore channel
// before touching the socket.
type wsConn struct {
	conn      *websocket.Conn
	sessionID string
	sendMu    chan struct{}
	closed    chan struct{}
}

func newWSConn(c *websocket.Conn, sessionID string) *wsConn {
	return &wsConn{
		conn:      c,
		sessionID: sessionID,
		sendMu:    make(chan struct{}, 1),
		closed:    make(chan struct{}),
	}
}

func (c *wsConn) Send(msg Message) error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	return c.conn.WriteJSON(msg)
}

func (c *wsConn) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}

	return c.conn.Close()
}

func (c *wsConn) SessionID() string { return c.sessionID }
