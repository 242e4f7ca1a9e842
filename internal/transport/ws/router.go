package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/drawtogether/board-service/internal/domain"
	"github.com/drawtogether/board-service/internal/registry"
	"github.com/drawtogether/board-service/internal/session"
	"github.com/drawtogether/board-service/internal/store"
)

// Router dispatches inbound realtime events: it validates the sender's
// session and room binding, fans events out to room peers, and hands draw
// commands to the async persistence writer. Malformed or unbindable events
// are dropped and logged, never answered (a bad event must not cost the
// sender its connection).
type Router struct {
	sessions *session.Store
	reg      *registry.Registry
	hub      *Hub
	store    store.Store
	appender *store.Appender

	now func() time.Time
}

func NewRouter(sessions *session.Store, reg *registry.Registry, hub *Hub, st store.Store, app *store.Appender) *Router {
	return &Router{
		sessions: sessions,
		reg:      reg,
		hub:      hub,
		store:    st,
		appender: app,
		now:      time.Now,
	}
}

// Connect allocates session state for a fresh connection.
func (rt *Router) Connect(c Conn) domain.Session {
	sess := rt.sessions.Create(c.SessionID())
	slog.Debug("ws connected", "session_id", sess.ID, "color", sess.Color)
	return sess
}

// HandleMessage routes one inbound frame.
func (rt *Router) HandleMessage(c Conn, raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		slog.Debug("ws: dropping unparseable frame", "session_id", c.SessionID())
		return
	}

	switch msg.Type {
	case EventJoinRoom:
		var p JoinRoomPayload
		if decode(msg.Payload, &p) != nil || p.RoomID == "" {
			slog.Debug("ws: dropping malformed join-room", "session_id", c.SessionID())
			return
		}
		rt.handleJoin(c, p.RoomID)
	case EventDrawStart:
		var p DrawStartPayload
		if decode(msg.Payload, &p) != nil {
			slog.Debug("ws: dropping malformed draw-start", "session_id", c.SessionID())
			return
		}
		rt.handleDraw(c, EventDrawStart, p, domain.DrawCommand{
			Type: domain.CommandStart, X: p.X, Y: p.Y, Color: p.Color, LineWidth: p.LineWidth,
		})
	case EventDrawMove:
		var p DrawMovePayload
		if decode(msg.Payload, &p) != nil {
			slog.Debug("ws: dropping malformed draw-move", "session_id", c.SessionID())
			return
		}
		rt.handleDraw(c, EventDrawMove, p, domain.DrawCommand{
			Type: domain.CommandMove, X: p.X, Y: p.Y,
		})
	case EventDrawEnd:
		rt.handleDraw(c, EventDrawEnd, nil, domain.DrawCommand{Type: domain.CommandEnd})
	case EventClearCanvas:
		rt.handleClear(c)
	case EventCursorMove:
		var p CursorMovePayload
		if decode(msg.Payload, &p) != nil {
			return
		}
		rt.handleCursor(c, p)
	default:
		slog.Debug("ws: unknown event type", "type", msg.Type, "session_id", c.SessionID())
	}
}

func (rt *Router) handleJoin(c Conn, rawID string) {
	sid := c.SessionID()

	roomID, err := domain.NormalizeRoomID(rawID)
	if err != nil {
		slog.Debug("ws: dropping join with bad room id", "session_id", sid, "room_id", rawID)
		return
	}

	sess, ok := rt.sessions.Get(sid)
	if !ok {
		// Event raced a disconnect.
		return
	}

	// A session holds at most one room; joining another leaves the first.
	if sess.RoomID != "" && sess.RoomID != roomID {
		rt.leaveRoom(c, sess.RoomID)
	}

	rt.sessions.BindRoom(sid, roomID)
	count := rt.reg.Join(roomID, sid)
	rt.hub.Join(roomID, c)

	// Mirror the record best-effort; the broadcast below never waits on it.
	go func() {
		ctx := context.Background()
		if _, err := rt.store.EnsureRoom(ctx, roomID); err != nil {
			slog.Error("ws: ensure room failed", "room_id", roomID, slog.Any("err", err))
			return
		}
		if err := rt.store.SetActiveUsers(ctx, roomID, count); err != nil {
			slog.Error("ws: mirror active count failed", "room_id", roomID, slog.Any("err", err))
		}
	}()

	if err := c.Send(Message{
		Type: EventRoomInfo,
		Payload: RoomInfoPayload{
			UserCount: count,
			UserID:    sid,
			Color:     sess.Color,
		},
	}); err != nil {
		slog.Debug("ws: room-info send failed", "session_id", sid, slog.Any("err", err))
	}

	rt.hub.Broadcast(roomID, Message{
		Type: EventUserJoined,
		Payload: UserJoinedPayload{
			UserID:    sid,
			UserCount: count,
			Color:     sess.Color,
		},
	}, c)

	slog.Info("ws: session joined room", "session_id", sid, "room_id", roomID, "user_count", count)
}

// handleDraw broadcasts the payload verbatim to room peers and queues the
// command for persistence. The broadcast is never blocked on the append.
func (rt *Router) handleDraw(c Conn, event string, payload interface{}, cmd domain.DrawCommand) {
	sess, ok := rt.sessions.Get(c.SessionID())
	if !ok || sess.RoomID == "" {
		return
	}

	rt.hub.Broadcast(sess.RoomID, Message{Type: event, Payload: payload}, c)

	cmd.Timestamp = rt.now()
	rt.appender.Enqueue(sess.RoomID, cmd)
	rt.reg.Touch(sess.RoomID)
}

func (rt *Router) handleClear(c Conn) {
	sess, ok := rt.sessions.Get(c.SessionID())
	if !ok || sess.RoomID == "" {
		return
	}

	rt.hub.Broadcast(sess.RoomID, Message{Type: EventClearCanvas}, c)

	rt.appender.Enqueue(sess.RoomID, domain.DrawCommand{
		Type:      domain.CommandClear,
		Timestamp: rt.now(),
	})
	rt.reg.Touch(sess.RoomID)
}

func (rt *Router) handleCursor(c Conn, p CursorMovePayload) {
	sid := c.SessionID()

	sess, ok := rt.sessions.Get(sid)
	if !ok || sess.RoomID == "" {
		return
	}

	// The gate drops updates inside the window; no error surfaces to the sender.
	if !rt.sessions.UpdateCursor(sid, p.X, p.Y) {
		return
	}

	rt.hub.Broadcast(sess.RoomID, Message{
		Type: EventCursorMove,
		Payload: CursorBroadcastPayload{
			UserID: sid,
			X:      p.X,
			Y:      p.Y,
			Color:  sess.Color,
		},
	}, c)
}

// Disconnect releases everything the connection held. Session removal is the
// single point of truth for "already gone", so a transport disconnect racing
// an explicit leave cleans up exactly once.
func (rt *Router) Disconnect(c Conn) {
	sid := c.SessionID()

	roomID, ok := rt.sessions.Remove(sid)
	if !ok {
		return
	}
	if roomID == "" {
		slog.Debug("ws: session disconnected without a room", "session_id", sid)
		return
	}

	rt.leaveRoom(c, roomID)
	slog.Info("ws: session disconnected", "session_id", sid, "room_id", roomID)
}

// leaveRoom removes the connection from one room and tells the remaining
// peers. Callers must already have settled the session state.
func (rt *Router) leaveRoom(c Conn, roomID string) {
	sid := c.SessionID()

	rt.hub.Leave(roomID, c)
	count := rt.reg.Leave(roomID, sid)

	rt.hub.Broadcast(roomID, Message{
		Type: EventUserLeft,
		Payload: UserLeftPayload{
			UserID:    sid,
			UserCount: count,
		},
	}, c)

	go func() {
		if err := rt.store.SetActiveUsers(context.Background(), roomID, count); err != nil {
			slog.Error("ws: mirror active count failed", "room_id", roomID, slog.Any("err", err))
		}
	}()
}
