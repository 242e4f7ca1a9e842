// Package store defines the persistence-log contract shared by the durable
// backends (postgres, redis) and the ephemeral in-memory implementation, plus
// the failover wrapper that picks between them at a single decision point.
package store

import (
	"context"
	"time"

	"github.com/drawtogether/board-service/internal/domain"
)

// Store is the persisted view of a room: its record and its append-ordered
// drawing log. Implementations must treat a clear command as a full log
// replacement, leaving exactly the clear marker behind.
type Store interface {
	// EnsureRoom creates the room record if absent and refreshes its
	// last-activity time, returning the current record either way.
	EnsureRoom(ctx context.Context, roomID string) (*domain.Room, error)

	// GetRoom returns the record or domain.ErrRoomNotFound.
	GetRoom(ctx context.Context, roomID string) (*domain.Room, error)

	Exists(ctx context.Context, roomID string) (bool, error)

	// Append adds a command to the room's log; a clear command replaces the
	// whole log with the single marker.
	Append(ctx context.Context, roomID string, cmd domain.DrawCommand) error

	// Load returns the full log in append order.
	Load(ctx context.Context, roomID string) ([]domain.DrawCommand, error)

	SetActiveUsers(ctx context.Context, roomID string, n int) error
	TouchActivity(ctx context.Context, roomID string) error

	// Delete removes the record and the log.
	Delete(ctx context.Context, roomID string) error

	// ExpiredRooms lists rooms whose last activity is older than the cutoff.
	ExpiredRooms(ctx context.Context, olderThan time.Time) ([]string, error)

	Ping(ctx context.Context) error
}
