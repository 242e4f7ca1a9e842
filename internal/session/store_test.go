package session

import (
	"slices"
	"testing"
	"time"

	"github.com/drawtogether/board-service/internal/domain"
)

func TestCreateAssignsPaletteColor(t *testing.T) {
	s := NewStore(16 * time.Millisecond)

	sess := s.Create("conn-1")
	if sess.ID != "conn-1" {
		t.Fatalf("id mismatch: %s", sess.ID)
	}
	if !slices.Contains(domain.CursorPalette, sess.Color) {
		t.Fatalf("color %q not from palette", sess.Color)
	}
	if sess.RoomID != "" {
		t.Fatalf("new session must not be bound to a room, got %q", sess.RoomID)
	}
}

func TestBindRoomMissingSessionIsNoop(t *testing.T) {
	s := NewStore(0)

	s.BindRoom("ghost", "ABC123") // must not panic or create state
	if s.Len() != 0 {
		t.Fatalf("no-op bind created state")
	}
}

func TestRemoveReturnsBindingExactlyOnce(t *testing.T) {
	s := NewStore(0)
	s.Create("conn-1")
	s.BindRoom("conn-1", "ABC123")

	room, ok := s.Remove("conn-1")
	if !ok || room != "ABC123" {
		t.Fatalf("first remove: got (%q, %v)", room, ok)
	}

	// Second remove simulates a transport disconnect racing an explicit leave.
	if _, ok := s.Remove("conn-1"); ok {
		t.Fatal("second remove must report already gone")
	}
}

func TestUpdateCursorGateWindow(t *testing.T) {
	s := NewStore(16 * time.Millisecond)
	now := time.Unix(1000, 0)
	s.now = func() time.Time { return now }

	s.Create("conn-1")

	if !s.UpdateCursor("conn-1", 1, 1) {
		t.Fatal("first update must pass")
	}

	now = now.Add(5 * time.Millisecond)
	if s.UpdateCursor("conn-1", 2, 2) {
		t.Fatal("update inside the window must be dropped")
	}

	// The dropped update still records the newest position.
	sess, _ := s.Get("conn-1")
	if sess.CursorX != 2 || sess.CursorY != 2 {
		t.Fatalf("position not recorded: (%v, %v)", sess.CursorX, sess.CursorY)
	}

	now = now.Add(12 * time.Millisecond)
	if !s.UpdateCursor("conn-1", 3, 3) {
		t.Fatal("update after the window must pass")
	}
}

func TestUpdateCursorGateIsPerSession(t *testing.T) {
	s := NewStore(16 * time.Millisecond)
	now := time.Unix(1000, 0)
	s.now = func() time.Time { return now }

	s.Create("a")
	s.Create("b")

	if !s.UpdateCursor("a", 1, 1) {
		t.Fatal("a's first update must pass")
	}
	if !s.UpdateCursor("b", 1, 1) {
		t.Fatal("b's gate must be independent of a's")
	}
}

func TestUpdateCursorUnknownSession(t *testing.T) {
	s := NewStore(0)
	if s.UpdateCursor("ghost", 1, 1) {
		t.Fatal("unknown session must never forward")
	}
}
