package domain

import "strings"

const (
	RoomIDMinLen = 6
	RoomIDMaxLen = 8
)

// NormalizeRoomID uppercases a client-supplied room code and checks its
// shape. Room ids are case-insensitive on the wire.
func NormalizeRoomID(raw string) (string, error) {
	id := strings.ToUpper(strings.TrimSpace(raw))
	if len(id) < RoomIDMinLen || len(id) > RoomIDMaxLen {
		return "", ErrInvalidRoomID
	}
	for _, r := range id {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "", ErrInvalidRoomID
		}
	}
	return id, nil
}
