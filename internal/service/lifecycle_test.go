package service

import (
	"context"
	"testing"
	"time"

	"github.com/drawtogether/board-service/internal/domain"
	"github.com/drawtogether/board-service/internal/registry"
	"github.com/drawtogether/board-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepExpiresIdleEmptyRooms(t *testing.T) {
	mem := store.NewMemory()
	reg := registry.New(6)
	app := store.NewAppender(mem, time.Second)
	defer app.Close()

	ctx := context.Background()

	// OLD111: empty, idle beyond retention.
	_, _ = mem.EnsureRoom(ctx, "OLD111")
	_ = mem.Append(ctx, "OLD111", domain.DrawCommand{Type: domain.CommandStart})
	reg.Join("OLD111", "a")
	reg.Leave("OLD111", "a")

	// LIVE22: still has a member; age must not matter.
	_, _ = mem.EnsureRoom(ctx, "LIVE22")
	reg.Join("LIVE22", "b")

	lc := NewLifecycle(mem, reg, app, 24*time.Hour, time.Hour)
	lc.now = func() time.Time { return time.Now().Add(48 * time.Hour) }

	lc.Sweep(ctx)

	_, err := mem.GetRoom(ctx, "OLD111")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound, "idle empty room must be deleted")
	assert.False(t, reg.Known("OLD111"), "registry entry must be dropped")

	_, err = mem.GetRoom(ctx, "LIVE22")
	require.NoError(t, err, "room with members must survive")
	assert.True(t, reg.Known("LIVE22"))
}

func TestSweepExpiresStoreOnlyRooms(t *testing.T) {
	mem := store.NewMemory()
	reg := registry.New(6)

	ctx := context.Background()

	// A room only the store remembers, e.g. persisted before a restart.
	_, _ = mem.EnsureRoom(ctx, "GONE33")

	lc := NewLifecycle(mem, reg, nil, 24*time.Hour, time.Hour)
	lc.now = func() time.Time { return time.Now().Add(48 * time.Hour) }

	lc.Sweep(ctx)

	_, err := mem.GetRoom(ctx, "GONE33")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestSweepKeepsFreshRooms(t *testing.T) {
	mem := store.NewMemory()
	reg := registry.New(6)

	ctx := context.Background()
	_, _ = mem.EnsureRoom(ctx, "FRESH1")
	reg.Join("FRESH1", "a")
	reg.Leave("FRESH1", "a")

	// Retention has not lapsed: nothing to expire even though the room is empty.
	lc := NewLifecycle(mem, reg, nil, 24*time.Hour, time.Hour)
	lc.Sweep(ctx)

	_, err := mem.GetRoom(ctx, "FRESH1")
	require.NoError(t, err)
	assert.True(t, reg.Known("FRESH1"))
}
