package domain

import "errors"

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrNotInRoom       = errors.New("session not in a room")
	ErrInvalidRoomID   = errors.New("invalid room id")
)
