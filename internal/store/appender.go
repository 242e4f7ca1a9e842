package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/drawtogether/board-service/internal/domain"
)

const appendQueueSize = 256

// Appender decouples persistence from the broadcast path. Each room gets one
// lazily started writer goroutine draining an ordered queue, so appends never
// block a reader loop and the persisted order per room equals the order the
// server enqueued commands in. A full queue drops the command: persistence is
// best-effort and never backpressures the real-time path.
type Appender struct {
	store     Store
	opTimeout time.Duration

	mu     sync.Mutex
	queues map[string]chan domain.DrawCommand
	closed bool
	wg     sync.WaitGroup
}

func NewAppender(store Store, opTimeout time.Duration) *Appender {
	if opTimeout <= 0 {
		opTimeout = 2 * time.Second
	}
	return &Appender{
		store:     store,
		opTimeout: opTimeout,
		queues:    make(map[string]chan domain.DrawCommand),
	}
}

// Enqueue hands a command to the room's writer. Never blocks.
func (a *Appender) Enqueue(roomID string, cmd domain.DrawCommand) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	q, ok := a.queues[roomID]
	if !ok {
		q = make(chan domain.DrawCommand, appendQueueSize)
		a.queues[roomID] = q
		a.wg.Add(1)
		go a.drain(roomID, q)
	}
	a.mu.Unlock()

	select {
	case q <- cmd:
	default:
		slog.Warn("store.Appender: queue full, dropping command",
			"room_id", roomID, "type", string(cmd.Type))
	}
}

func (a *Appender) drain(roomID string, q <-chan domain.DrawCommand) {
	defer a.wg.Done()
	for cmd := range q {
		ctx, cancel := context.WithTimeout(context.Background(), a.opTimeout)
		err := a.store.Append(ctx, roomID, cmd)
		cancel()
		if err != nil {
			// The broadcast already happened; the log just lags.
			slog.Error("store.Appender: append failed",
				"room_id", roomID, "type", string(cmd.Type), slog.Any("err", err))
		}
	}
}

// Forget stops the room's writer once its queue drains. Called when the
// lifecycle sweep expires the room.
func (a *Appender) Forget(roomID string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if q, ok := a.queues[roomID]; ok {
		close(q)
		delete(a.queues, roomID)
	}
}

// Close stops every writer and waits for queued commands to flush.
func (a *Appender) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	for id, q := range a.queues {
		close(q)
		delete(a.queues, id)
	}
	a.mu.Unlock()

	a.wg.Wait()
}
