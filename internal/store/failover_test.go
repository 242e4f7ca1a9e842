package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/drawtogether/board-service/internal/domain"
)

// flakyStore wraps Memory and fails every call while broken.
type flakyStore struct {
	*Memory
	mu     sync.Mutex
	broken bool
}

func (f *flakyStore) fail() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.broken
}

func (f *flakyStore) setBroken(b bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broken = b
}

var errDown = errors.New("store down")

func (f *flakyStore) EnsureRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	if f.fail() {
		return nil, errDown
	}
	return f.Memory.EnsureRoom(ctx, roomID)
}

func (f *flakyStore) Append(ctx context.Context, roomID string, cmd domain.DrawCommand) error {
	if f.fail() {
		return errDown
	}
	return f.Memory.Append(ctx, roomID, cmd)
}

func (f *flakyStore) Load(ctx context.Context, roomID string) ([]domain.DrawCommand, error) {
	if f.fail() {
		return nil, errDown
	}
	return f.Memory.Load(ctx, roomID)
}

func (f *flakyStore) GetRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	if f.fail() {
		return nil, errDown
	}
	return f.Memory.GetRoom(ctx, roomID)
}

func (f *flakyStore) Ping(ctx context.Context) error {
	if f.fail() {
		return errDown
	}
	return nil
}

func TestFailoverDegradesToMemory(t *testing.T) {
	primary := &flakyStore{Memory: NewMemory()}
	fb := NewMemory()
	f := NewFailover(primary, fb, time.Second, time.Minute)
	ctx := context.Background()

	// Healthy: writes land on the primary.
	if err := f.Append(ctx, "ABC123", domain.DrawCommand{Type: domain.CommandStart}); err != nil {
		t.Fatalf("append via primary: %v", err)
	}
	if log, _ := primary.Memory.Load(ctx, "ABC123"); len(log) != 1 {
		t.Fatalf("primary log: %d", len(log))
	}

	// Outage: the same call succeeds against the fallback, caller unaware.
	primary.setBroken(true)
	if err := f.Append(ctx, "ABC123", domain.DrawCommand{Type: domain.CommandMove}); err != nil {
		t.Fatalf("append during outage: %v", err)
	}
	if log, _ := fb.Load(ctx, "ABC123"); len(log) != 1 {
		t.Fatalf("fallback log: %d", len(log))
	}

	// Reads also serve the fallback during the outage.
	if _, err := f.Load(ctx, "ABC123"); err != nil {
		t.Fatalf("load during outage: %v", err)
	}
}

func TestFailoverRecoversAfterProbe(t *testing.T) {
	primary := &flakyStore{Memory: NewMemory()}
	fb := NewMemory()
	f := NewFailover(primary, fb, time.Second, 10*time.Second)

	now := time.Unix(1000, 0)
	f.now = func() time.Time { return now }
	ctx := context.Background()

	primary.setBroken(true)
	_ = f.Append(ctx, "ABC123", domain.DrawCommand{Type: domain.CommandStart})

	// Primary heals, but the probe interval has not lapsed yet.
	primary.setBroken(false)
	_ = f.Append(ctx, "ABC123", domain.DrawCommand{Type: domain.CommandMove})
	if log, _ := primary.Memory.Load(ctx, "ABC123"); len(log) != 0 {
		t.Fatalf("must not probe before the interval, primary log: %d", len(log))
	}

	// After the interval the next call probes, recovers, and uses the primary.
	now = now.Add(11 * time.Second)
	if err := f.Append(ctx, "ABC123", domain.DrawCommand{Type: domain.CommandEnd}); err != nil {
		t.Fatalf("append after recovery: %v", err)
	}
	if log, _ := primary.Memory.Load(ctx, "ABC123"); len(log) != 1 {
		t.Fatalf("primary must serve after recovery, log: %d", len(log))
	}
}

func TestFailoverNotFoundIsNotAnOutage(t *testing.T) {
	primary := &flakyStore{Memory: NewMemory()}
	f := NewFailover(primary, NewMemory(), time.Second, time.Minute)
	ctx := context.Background()

	if _, err := f.GetRoom(ctx, "NOPE99"); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound passthrough, got %v", err)
	}

	// The miss must not have flipped the failover to the fallback.
	_ = f.Append(ctx, "ABC123", domain.DrawCommand{Type: domain.CommandStart})
	if log, _ := primary.Memory.Load(ctx, "ABC123"); len(log) != 1 {
		t.Fatalf("primary must still serve, log: %d", len(log))
	}
}
