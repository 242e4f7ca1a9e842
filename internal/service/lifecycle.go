package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/drawtogether/board-service/internal/registry"
	"github.com/drawtogether/board-service/internal/store"
)

// Lifecycle expires rooms that have had zero members for longer than the
// retention threshold: their persisted log is deleted and the registry entry
// dropped. Rooms with members are never expired, whatever their age.
type Lifecycle struct {
	store    store.Store
	reg      *registry.Registry
	appender *store.Appender

	retention time.Duration
	interval  time.Duration

	stop chan struct{}
	done chan struct{}
	now  func() time.Time
}

func NewLifecycle(st store.Store, reg *registry.Registry, app *store.Appender, retention, interval time.Duration) *Lifecycle {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &Lifecycle{
		store:     st,
		reg:       reg,
		appender:  app,
		retention: retention,
		interval:  interval,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		now:       time.Now,
	}
}

// Run blocks until Stop; meant for its own goroutine.
func (l *Lifecycle) Run() {
	defer close(l.done)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.Sweep(context.Background())
		case <-l.stop:
			return
		}
	}
}

func (l *Lifecycle) Stop() {
	close(l.stop)
	<-l.done
}

// Sweep runs one expiry pass. Exported so tests and Run share the same path.
func (l *Lifecycle) Sweep(ctx context.Context) {
	cutoff := l.now().Add(-l.retention)
	removed := 0

	for _, info := range l.reg.Snapshot() {
		if info.ActiveCount > 0 || !info.LastActivity.Before(cutoff) {
			continue
		}
		if err := l.store.Delete(ctx, info.ID); err != nil {
			slog.Error("lifecycle: delete room log failed",
				"room_id", info.ID, slog.Any("err", err))
			continue
		}
		if l.appender != nil {
			l.appender.Forget(info.ID)
		}
		l.reg.Forget(info.ID)
		removed++
	}

	// Rooms only the store remembers (e.g. from before a restart) expire by
	// their stored last-activity time.
	ids, err := l.store.ExpiredRooms(ctx, cutoff)
	if err != nil {
		slog.Error("lifecycle: list expired rooms failed", slog.Any("err", err))
	} else {
		for _, id := range ids {
			if l.reg.Known(id) {
				// The registry entry governs; handled above.
				continue
			}
			if err := l.store.Delete(ctx, id); err != nil {
				slog.Error("lifecycle: delete room log failed",
					"room_id", id, slog.Any("err", err))
				continue
			}
			removed++
		}
	}

	if removed > 0 {
		slog.Info("lifecycle: expired rooms cleaned up", "count", removed)
	}
}
