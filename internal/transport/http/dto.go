package http

import (
	"time"

	"github.com/drawtogether/board-service/internal/domain"
)

type JoinRoomRequest struct {
	RoomID string `json:"roomId"`
}

type JoinRoomResponse struct {
	RoomID      string               `json:"roomId"`
	DrawingData []domain.DrawCommand `json:"drawingData"`
}

type CreateRoomResponse struct {
	RoomID string `json:"roomId"`
}

type RoomSnapshotResponse struct {
	RoomID       string               `json:"roomId"`
	CreatedAt    time.Time            `json:"createdAt"`
	LastActivity time.Time            `json:"lastActivity"`
	DrawingData  []domain.DrawCommand `json:"drawingData"`
	ActiveUsers  int                  `json:"activeUsers"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
