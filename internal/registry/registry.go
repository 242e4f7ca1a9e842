package registry

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RoomInfo is a point-in-time view of one registry entry, used by the
// lifecycle sweep.
type RoomInfo struct {
	ID           string
	CreatedAt    time.Time
	LastActivity time.Time
	ActiveCount  int
}

type roomEntry struct {
	members      map[string]struct{}
	createdAt    time.Time
	lastActivity time.Time
}

// Registry maps room codes to membership sets. It is the serialization point
// for membership mutation: join and leave on the same room cannot race to an
// inconsistent count. Empty rooms are kept until Forget so their codes stay
// reserved while pending expiry.
type Registry struct {
	mu     sync.Mutex
	rooms  map[string]*roomEntry
	idLen  int
	now    func() time.Time
}

func New(idLen int) *Registry {
	if idLen < 6 || idLen > 8 {
		idLen = 6
	}
	return &Registry{
		rooms: make(map[string]*roomEntry),
		idLen: idLen,
		now:   time.Now,
	}
}

// Join adds the connection to the room, creating the room if unseen, and
// returns the new active count.
func (r *Registry) Join(roomID, connID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.rooms[roomID]
	if !ok {
		now := r.now()
		e = &roomEntry{
			members:      make(map[string]struct{}),
			createdAt:    now,
			lastActivity: now,
		}
		r.rooms[roomID] = e
	}
	e.members[connID] = struct{}{}
	e.lastActivity = r.now()
	return len(e.members)
}

// Leave removes the connection and returns the remaining active count. The
// room entry is kept even when empty; the lifecycle sweep reclaims it once
// its retention window lapses.
func (r *Registry) Leave(roomID, connID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.rooms[roomID]
	if !ok {
		return 0
	}
	delete(e.members, connID)
	e.lastActivity = r.now()
	return len(e.members)
}

func (r *Registry) ActiveCount(roomID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.rooms[roomID]; ok {
		return len(e.members)
	}
	return 0
}

// Touch refreshes the room's last-activity time; called on draw and clear
// events so active rooms are never treated as stale.
func (r *Registry) Touch(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.rooms[roomID]; ok {
		e.lastActivity = r.now()
	}
}

// Known reports whether the registry currently holds the code, live or
// pending expiry.
func (r *Registry) Known(roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.rooms[roomID]
	return ok
}

// Forget drops an entry outright. Only the lifecycle sweep calls this, and
// only for rooms it has already verified are empty.
func (r *Registry) Forget(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.rooms, roomID)
}

// Snapshot lists every entry for the lifecycle sweep.
func (r *Registry) Snapshot() []RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]RoomInfo, 0, len(r.rooms))
	for id, e := range r.rooms {
		out = append(out, RoomInfo{
			ID:           id,
			CreatedAt:    e.createdAt,
			LastActivity: e.lastActivity,
			ActiveCount:  len(e.members),
		})
	}
	return out
}

// NewCode generates a random room code of the configured length, re-rolling
// on collision with any room the registry knows about. The extra taken check
// lets callers exclude codes held elsewhere (the durable store).
func (r *Registry) NewCode(taken func(string) bool) (string, error) {
	const maxAttempts = 64

	buf := make([]byte, r.idLen)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generate room code: %w", err)
		}
		for i := range buf {
			buf[i] = codeAlphabet[int(buf[i])%len(codeAlphabet)]
		}
		code := string(buf)

		if r.Known(code) {
			continue
		}
		if taken != nil && taken(code) {
			continue
		}
		return code, nil
	}
	return "", fmt.Errorf("generate room code: %d attempts exhausted", maxAttempts)
}
