package ws

import (
	"sync"
)

type Conn interface {
	Send(msg Message) error
	Close() error
	SessionID() string
}

// Hub tracks which connections are currently in which room. Connections are
// added per room on join-room, not on upgrade, because a connection picks its
// room after connecting and may move between rooms.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[Conn]struct{} // roomID -> set of connections
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[Conn]struct{})}
}

func (h *Hub) Join(roomID string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rs, ok := h.rooms[roomID]
	if !ok {
		rs = make(map[Conn]struct{})
		h.rooms[roomID] = rs
	}
	rs[c] = struct{}{}
}

func (h *Hub) Leave(roomID string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if rs, ok := h.rooms[roomID]; ok {
		delete(rs, c)
		if len(rs) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// Broadcast fans a message out to every connection in the room except the
// sender. Delivery is best-effort; a failed peer is the write side's problem.
func (h *Hub) Broadcast(roomID string, msg Message, except Conn) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if rs, ok := h.rooms[roomID]; ok {
		for c := range rs {
			if c == except {
				continue
			}
			_ = c.Send(msg) // best-effort
		}
	}
}

func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[roomID])
}
