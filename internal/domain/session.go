package domain

import "time"

// Session is the server-side state for one live connection. RoomID is empty
// until the connection joins a room.
type Session struct {
	ID           string
	Color        string
	RoomID       string
	CursorX      float64
	CursorY      float64
	LastCursorAt time.Time
}

// CursorPalette is the fixed set of colors assigned to sessions. Collisions
// between sessions are allowed.
var CursorPalette = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4", "#FECA57", "#FF9FF3", "#54A0FF",
}
