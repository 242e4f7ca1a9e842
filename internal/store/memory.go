package store

import (
	"context"
	"sync"
	"time"

	"github.com/drawtogether/board-service/internal/domain"
)

type memRoom struct {
	room domain.Room
	log  []domain.DrawCommand
}

// Memory is the ephemeral Store. It backs the failover path when the durable
// store is unreachable and doubles as the test implementation.
type Memory struct {
	mu    sync.Mutex
	rooms map[string]*memRoom
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		rooms: make(map[string]*memRoom),
		now:   time.Now,
	}
}

func (m *Memory) ensureLocked(roomID string) *memRoom {
	r, ok := m.rooms[roomID]
	if !ok {
		now := m.now()
		r = &memRoom{room: domain.Room{
			ID:           roomID,
			CreatedAt:    now,
			LastActivity: now,
		}}
		m.rooms[roomID] = r
	}
	return r
}

func (m *Memory) EnsureRoom(_ context.Context, roomID string) (*domain.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := m.ensureLocked(roomID)
	r.room.LastActivity = m.now()
	room := r.room
	return &room, nil
}

func (m *Memory) GetRoom(_ context.Context, roomID string) (*domain.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[roomID]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	room := r.room
	return &room, nil
}

func (m *Memory) Exists(_ context.Context, roomID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.rooms[roomID]
	return ok, nil
}

func (m *Memory) Append(_ context.Context, roomID string, cmd domain.DrawCommand) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := m.ensureLocked(roomID)
	if cmd.IsClear() {
		r.log = []domain.DrawCommand{cmd}
	} else {
		r.log = append(r.log, cmd)
	}
	r.room.LastActivity = m.now()
	return nil
}

func (m *Memory) Load(_ context.Context, roomID string) ([]domain.DrawCommand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[roomID]
	if !ok {
		return nil, nil
	}
	out := make([]domain.DrawCommand, len(r.log))
	copy(out, r.log)
	return out, nil
}

func (m *Memory) SetActiveUsers(_ context.Context, roomID string, n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.rooms[roomID]; ok {
		r.room.ActiveUsers = n
	}
	return nil
}

func (m *Memory) TouchActivity(_ context.Context, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.rooms[roomID]; ok {
		r.room.LastActivity = m.now()
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.rooms, roomID)
	return nil
}

func (m *Memory) ExpiredRooms(_ context.Context, olderThan time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []string
	for id, r := range m.rooms {
		if r.room.LastActivity.Before(olderThan) {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *Memory) Ping(context.Context) error { return nil }
