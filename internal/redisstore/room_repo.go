// Package redisstore implements the durable Store on Redis: a hash per room
// for the record, a list per room for the append-ordered drawing log, and an
// index set for the lifecycle sweep.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/drawtogether/board-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

type RoomRepository struct {
	client    *redis.Client
	keyPrefix string
}

func NewRoomRepository(client *redis.Client, keyPrefix string) *RoomRepository {
	if keyPrefix == "" {
		keyPrefix = "board:"
	}
	return &RoomRepository{client: client, keyPrefix: keyPrefix}
}

func (r *RoomRepository) metaKey(roomID string) string {
	return fmt.Sprintf("%sroom:%s:meta", r.keyPrefix, roomID)
}

func (r *RoomRepository) logKey(roomID string) string {
	return fmt.Sprintf("%sroom:%s:log", r.keyPrefix, roomID)
}

func (r *RoomRepository) indexKey() string {
	return r.keyPrefix + "rooms"
}

func (r *RoomRepository) EnsureRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	key := r.metaKey(roomID)

	pipe := r.client.TxPipeline()
	pipe.HSetNX(ctx, key, "created_at", now)
	pipe.HSetNX(ctx, key, "active_users", 0)
	pipe.HSet(ctx, key, "last_activity", now)
	pipe.SAdd(ctx, r.indexKey(), roomID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("redis: ensure room %s: %w", roomID, err)
	}

	return r.GetRoom(ctx, roomID)
}

func (r *RoomRepository) GetRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	fields, err := r.client.HGetAll(ctx, r.metaKey(roomID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: get room %s: %w", roomID, err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrRoomNotFound
	}

	rm := &domain.Room{ID: roomID}
	if v, ok := fields["created_at"]; ok {
		rm.CreatedAt, _ = time.Parse(time.RFC3339Nano, v)
	}
	if v, ok := fields["last_activity"]; ok {
		rm.LastActivity, _ = time.Parse(time.RFC3339Nano, v)
	}
	if v, ok := fields["active_users"]; ok {
		rm.ActiveUsers, _ = strconv.Atoi(v)
	}
	return rm, nil
}

func (r *RoomRepository) Exists(ctx context.Context, roomID string) (bool, error) {
	n, err := r.client.Exists(ctx, r.metaKey(roomID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis: exists %s: %w", roomID, err)
	}
	return n > 0, nil
}

func (r *RoomRepository) Append(ctx context.Context, roomID string, cmd domain.DrawCommand) error {
	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("redis: marshal command: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	pipe := r.client.TxPipeline()
	if cmd.IsClear() {
		// Truncate-and-mark inside one transaction so readers never see a
		// half-cleared log.
		pipe.Del(ctx, r.logKey(roomID))
	}
	pipe.RPush(ctx, r.logKey(roomID), data)
	pipe.HSet(ctx, r.metaKey(roomID), "last_activity", now)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: append to %s: %w", roomID, err)
	}
	return nil
}

func (r *RoomRepository) Load(ctx context.Context, roomID string) ([]domain.DrawCommand, error) {
	raw, err := r.client.LRange(ctx, r.logKey(roomID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: load %s: %w", roomID, err)
	}

	out := make([]domain.DrawCommand, 0, len(raw))
	for _, s := range raw {
		var cmd domain.DrawCommand
		if err := json.Unmarshal([]byte(s), &cmd); err != nil {
			// A corrupt entry loses one command, not the whole replay.
			continue
		}
		out = append(out, cmd)
	}
	return out, nil
}

func (r *RoomRepository) SetActiveUsers(ctx context.Context, roomID string, n int) error {
	key := r.metaKey(roomID)
	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("redis: set active users %s: %w", roomID, err)
	}
	if exists == 0 {
		return nil
	}
	if err := r.client.HSet(ctx, key, "active_users", n).Err(); err != nil {
		return fmt.Errorf("redis: set active users %s: %w", roomID, err)
	}
	return nil
}

func (r *RoomRepository) TouchActivity(ctx context.Context, roomID string) error {
	key := r.metaKey(roomID)
	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("redis: touch %s: %w", roomID, err)
	}
	if exists == 0 {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if err := r.client.HSet(ctx, key, "last_activity", now).Err(); err != nil {
		return fmt.Errorf("redis: touch %s: %w", roomID, err)
	}
	return nil
}

func (r *RoomRepository) Delete(ctx context.Context, roomID string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.metaKey(roomID), r.logKey(roomID))
	pipe.SRem(ctx, r.indexKey(), roomID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: delete %s: %w", roomID, err)
	}
	return nil
}

func (r *RoomRepository) ExpiredRooms(ctx context.Context, olderThan time.Time) ([]string, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list rooms: %w", err)
	}

	var out []string
	for _, id := range ids {
		v, err := r.client.HGet(ctx, r.metaKey(id), "last_activity").Result()
		if err == redis.Nil {
			// Meta gone but index entry left behind; sweep it.
			out = append(out, id)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("redis: read last_activity for %s: %w", id, err)
		}
		ts, err := time.Parse(time.RFC3339Nano, v)
		if err != nil || ts.Before(olderThan) {
			out = append(out, id)
		}
	}
	return out, nil
}

func (r *RoomRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
