package service

import (
	"context"
	"fmt"

	"github.com/drawtogether/board-service/internal/domain"
	"github.com/drawtogether/board-service/internal/registry"
	"github.com/drawtogether/board-service/internal/store"
)

// RoomService backs the bootstrap HTTP contract: create a room with a fresh
// code, join (create-if-absent) and read back the drawing history, snapshot a
// room's record.
type RoomService struct {
	store store.Store
	reg   *registry.Registry
}

func NewRoomService(st store.Store, reg *registry.Registry) *RoomService {
	return &RoomService{store: st, reg: reg}
}

// Create allocates a fresh unique room code without joining it. Codes are
// checked against both the registry and the durable store, so a code is never
// reissued while either side still remembers it.
func (s *RoomService) Create(ctx context.Context) (*domain.Room, error) {
	code, err := s.reg.NewCode(func(c string) bool {
		exists, err := s.store.Exists(ctx, c)
		if err != nil {
			// Treat an uncheckable code as taken and keep rolling.
			return true
		}
		return exists
	})
	if err != nil {
		return nil, fmt.Errorf("roomService.Create: %w", err)
	}

	room, err := s.store.EnsureRoom(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("roomService.Create: %w", err)
	}
	return room, nil
}

// Join returns the room's full drawing history, creating the room if it does
// not exist yet. The realtime channel never replays history; this is the only
// hydration path.
func (s *RoomService) Join(ctx context.Context, rawID string) (*domain.Room, []domain.DrawCommand, error) {
	id, err := domain.NormalizeRoomID(rawID)
	if err != nil {
		return nil, nil, err
	}

	room, err := s.store.EnsureRoom(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("roomService.Join: %w", err)
	}

	log, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("roomService.Join: %w", err)
	}
	return room, log, nil
}

// Get is a read-only snapshot; the active count comes from the registry, the
// live source of truth.
func (s *RoomService) Get(ctx context.Context, rawID string) (*domain.Room, []domain.DrawCommand, error) {
	id, err := domain.NormalizeRoomID(rawID)
	if err != nil {
		return nil, nil, err
	}

	room, err := s.store.GetRoom(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	room.ActiveUsers = s.reg.ActiveCount(id)

	log, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("roomService.Get: %w", err)
	}
	return room, log, nil
}
