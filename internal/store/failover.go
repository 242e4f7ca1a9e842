package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/drawtogether/board-service/internal/domain"
)

// Failover serves every operation from the durable primary while it is
// healthy and transparently degrades to the shared in-memory fallback when it
// is not. Callers never learn which side answered. The primary is re-probed
// at most once per health interval; history written before an outage is not
// copied into the fallback, it simply reappears when the primary recovers.
type Failover struct {
	primary  Store
	fallback *Memory

	opTimeout      time.Duration
	healthInterval time.Duration

	mu        sync.Mutex
	down      bool
	lastProbe time.Time
	now       func() time.Time
}

func NewFailover(primary Store, fallback *Memory, opTimeout, healthInterval time.Duration) *Failover {
	if opTimeout <= 0 {
		opTimeout = 2 * time.Second
	}
	if healthInterval <= 0 {
		healthInterval = 15 * time.Second
	}
	return &Failover{
		primary:        primary,
		fallback:       fallback,
		opTimeout:      opTimeout,
		healthInterval: healthInterval,
		now:            time.Now,
	}
}

// usePrimary decides the backend for this operation, probing a downed
// primary once per health interval.
func (f *Failover) usePrimary(ctx context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.down {
		return true
	}
	if f.now().Sub(f.lastProbe) < f.healthInterval {
		return false
	}
	f.lastProbe = f.now()

	pctx, cancel := context.WithTimeout(ctx, f.opTimeout)
	err := f.primary.Ping(pctx)
	cancel()
	if err != nil {
		return false
	}
	f.down = false
	slog.Info("store.Failover: durable store recovered")
	return true
}

func (f *Failover) markDown(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.down {
		slog.Error("store.Failover: durable store unavailable, degrading to memory",
			"op", op, slog.Any("err", err))
		f.down = true
		f.lastProbe = f.now()
	}
}

// degraded reports whether an error should flip to the fallback. Domain
// outcomes (room not found) are answers, not outages.
func degraded(err error) bool {
	return err != nil && !errors.Is(err, domain.ErrRoomNotFound)
}

func (f *Failover) EnsureRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	if f.usePrimary(ctx) {
		pctx, cancel := context.WithTimeout(ctx, f.opTimeout)
		room, err := f.primary.EnsureRoom(pctx, roomID)
		cancel()
		if !degraded(err) {
			return room, err
		}
		f.markDown("EnsureRoom", err)
	}
	return f.fallback.EnsureRoom(ctx, roomID)
}

func (f *Failover) GetRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	if f.usePrimary(ctx) {
		pctx, cancel := context.WithTimeout(ctx, f.opTimeout)
		room, err := f.primary.GetRoom(pctx, roomID)
		cancel()
		if !degraded(err) {
			return room, err
		}
		f.markDown("GetRoom", err)
	}
	return f.fallback.GetRoom(ctx, roomID)
}

func (f *Failover) Exists(ctx context.Context, roomID string) (bool, error) {
	if f.usePrimary(ctx) {
		pctx, cancel := context.WithTimeout(ctx, f.opTimeout)
		ok, err := f.primary.Exists(pctx, roomID)
		cancel()
		if !degraded(err) {
			return ok, err
		}
		f.markDown("Exists", err)
	}
	return f.fallback.Exists(ctx, roomID)
}

func (f *Failover) Append(ctx context.Context, roomID string, cmd domain.DrawCommand) error {
	if f.usePrimary(ctx) {
		pctx, cancel := context.WithTimeout(ctx, f.opTimeout)
		err := f.primary.Append(pctx, roomID, cmd)
		cancel()
		if !degraded(err) {
			return err
		}
		f.markDown("Append", err)
	}
	return f.fallback.Append(ctx, roomID, cmd)
}

func (f *Failover) Load(ctx context.Context, roomID string) ([]domain.DrawCommand, error) {
	if f.usePrimary(ctx) {
		pctx, cancel := context.WithTimeout(ctx, f.opTimeout)
		log, err := f.primary.Load(pctx, roomID)
		cancel()
		if !degraded(err) {
			return log, err
		}
		f.markDown("Load", err)
	}
	return f.fallback.Load(ctx, roomID)
}

func (f *Failover) SetActiveUsers(ctx context.Context, roomID string, n int) error {
	if f.usePrimary(ctx) {
		pctx, cancel := context.WithTimeout(ctx, f.opTimeout)
		err := f.primary.SetActiveUsers(pctx, roomID, n)
		cancel()
		if !degraded(err) {
			return err
		}
		f.markDown("SetActiveUsers", err)
	}
	return f.fallback.SetActiveUsers(ctx, roomID, n)
}

func (f *Failover) TouchActivity(ctx context.Context, roomID string) error {
	if f.usePrimary(ctx) {
		pctx, cancel := context.WithTimeout(ctx, f.opTimeout)
		err := f.primary.TouchActivity(pctx, roomID)
		cancel()
		if !degraded(err) {
			return err
		}
		f.markDown("TouchActivity", err)
	}
	return f.fallback.TouchActivity(ctx, roomID)
}

func (f *Failover) Delete(ctx context.Context, roomID string) error {
	if f.usePrimary(ctx) {
		pctx, cancel := context.WithTimeout(ctx, f.opTimeout)
		err := f.primary.Delete(pctx, roomID)
		cancel()
		if !degraded(err) {
			// Keep both sides clean so the fallback never resurrects the room.
			_ = f.fallback.Delete(ctx, roomID)
			return err
		}
		f.markDown("Delete", err)
	}
	return f.fallback.Delete(ctx, roomID)
}

func (f *Failover) ExpiredRooms(ctx context.Context, olderThan time.Time) ([]string, error) {
	if f.usePrimary(ctx) {
		pctx, cancel := context.WithTimeout(ctx, f.opTimeout)
		ids, err := f.primary.ExpiredRooms(pctx, olderThan)
		cancel()
		if !degraded(err) {
			return ids, err
		}
		f.markDown("ExpiredRooms", err)
	}
	return f.fallback.ExpiredRooms(ctx, olderThan)
}

func (f *Failover) Ping(ctx context.Context) error {
	pctx, cancel := context.WithTimeout(ctx, f.opTimeout)
	defer cancel()
	return f.primary.Ping(pctx)
}
