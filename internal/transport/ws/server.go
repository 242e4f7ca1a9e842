package ws

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type Server struct {
	upgrader websocket.Upgrader
	router   *Router

	pingEvery      time.Duration
	maxMessageSize int64
}

func NewServer(router *Router, pingEvery time.Duration, maxMessageSize int64) *Server {
	if pingEvery <= 0 {
		pingEvery = 15 * time.Second
	}
	if maxMessageSize <= 0 {
		maxMessageSize = 4096
	}
	return &Server{
		router: router,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery:      pingEvery,
		maxMessageSize: maxMessageSize,
	}
}

// WS endpoint: GET /ws. The connection picks its room with a join-room event.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", slog.Any("err", err))
		return
	}

	c := newWSConn(conn, uuid.NewString())
	s.router.Connect(c)

	go s.writeLoop(c)
	s.readLoop(c)

	s.router.Disconnect(c)
	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "session_id", c.SessionID(), slog.Any("err", err))
	}
}

func (s *Server) readLoop(c *wsConn) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(s.maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		s.router.HandleMessage(c, data)
	}
}

func (s *Server) writeLoop(c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-c.closed:
			return
		}
	}
}
