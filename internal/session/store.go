package session

import (
	"math/rand"
	"sync"
	"time"

	"github.com/drawtogether/board-service/internal/domain"
)

// Store owns all per-connection state: assigned color, room binding, last
// cursor position and the cursor-broadcast gate. It is the single point of
// truth for "this connection still exists", which is what makes disconnect
// cleanup exactly-once.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session

	cursorInterval time.Duration
	now            func() time.Time
}

func NewStore(cursorInterval time.Duration) *Store {
	if cursorInterval <= 0 {
		cursorInterval = 16 * time.Millisecond
	}
	return &Store{
		sessions:       make(map[string]*domain.Session),
		cursorInterval: cursorInterval,
		now:            time.Now,
	}
}

// Create allocates state for a new connection and assigns a cursor color at
// random from the fixed palette.
func (s *Store) Create(connID string) domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := &domain.Session{
		ID:    connID,
		Color: domain.CursorPalette[rand.Intn(len(domain.CursorPalette))],
	}
	s.sessions[connID] = sess
	return *sess
}

// BindRoom sets the session's room. A missing session is a no-op: the event
// may have raced a disconnect.
func (s *Store) BindRoom(connID, roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[connID]; ok {
		sess.RoomID = roomID
	}
}

func (s *Store) Get(connID string) (domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[connID]
	if !ok {
		return domain.Session{}, false
	}
	return *sess, true
}

// UpdateCursor records the latest position and reports whether the update
// passed the per-session gate and should be forwarded to peers. Updates
// inside the gate window are dropped, not queued: only the most recent
// accepted position matters to peers.
func (s *Store) UpdateCursor(connID string, x, y float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[connID]
	if !ok {
		return false
	}

	sess.CursorX = x
	sess.CursorY = y

	now := s.now()
	if !sess.LastCursorAt.IsZero() && now.Sub(sess.LastCursorAt) < s.cursorInterval {
		return false
	}
	sess.LastCursorAt = now
	return true
}

// Remove deletes the session and returns its room binding. Only the first
// caller gets ok=true; concurrent leave/disconnect for the same connection
// therefore performs the room cleanup exactly once.
func (s *Store) Remove(connID string) (roomID string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[connID]
	if !ok {
		return "", false
	}
	delete(s.sessions, connID)
	return sess.RoomID, true
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
