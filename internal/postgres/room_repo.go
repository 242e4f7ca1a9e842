package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/drawtogether/board-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RoomRepository is the durable Store on Postgres. The room record lives in
// rooms; the drawing log is the append-ordered room_commands table, ordered
// by its serial id.
type RoomRepository struct {
	db *pgxpool.Pool
}

func NewRoomRepository(db *pgxpool.Pool) *RoomRepository {
	return &RoomRepository{db: db}
}

func (r *RoomRepository) EnsureRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	query := `
		INSERT INTO rooms (room_id)
		VALUES ($1)
		ON CONFLICT (room_id) DO UPDATE SET last_activity = now()
		RETURNING room_id, created_at, last_activity, active_users`
	var rm domain.Room
	err := r.db.QueryRow(ctx, query, roomID).
		Scan(&rm.ID, &rm.CreatedAt, &rm.LastActivity, &rm.ActiveUsers)
	if err != nil {
		return nil, err
	}
	return &rm, nil
}

func (r *RoomRepository) GetRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	var rm domain.Room
	query := `SELECT room_id, created_at, last_activity, active_users FROM rooms WHERE room_id=$1`
	err := r.db.QueryRow(ctx, query, roomID).
		Scan(&rm.ID, &rm.CreatedAt, &rm.LastActivity, &rm.ActiveUsers)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}
	return &rm, nil
}

func (r *RoomRepository) Exists(ctx context.Context, roomID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM rooms WHERE room_id=$1)`, roomID).Scan(&exists)
	return exists, err
}

// Append writes one command. A clear runs in a transaction that truncates the
// room's log and leaves only the marker, so a concurrent Load never observes
// a half-cleared log.
func (r *RoomRepository) Append(ctx context.Context, roomID string, cmd domain.DrawCommand) error {
	if cmd.IsClear() {
		tx, err := r.db.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		if _, err := tx.Exec(ctx, `DELETE FROM room_commands WHERE room_id=$1`, roomID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO room_commands (room_id, kind, created_at)
			VALUES ($1, $2, $3)`,
			roomID, string(cmd.Type), cmd.Timestamp); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE rooms SET last_activity = now() WHERE room_id=$1`, roomID); err != nil {
			return err
		}
		return tx.Commit(ctx)
	}

	if _, err := r.db.Exec(ctx, `
		INSERT INTO room_commands (room_id, kind, x, y, color, line_width, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		roomID, string(cmd.Type), cmd.X, cmd.Y, nullIfEmpty(cmd.Color), cmd.LineWidth, cmd.Timestamp); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx, `UPDATE rooms SET last_activity = now() WHERE room_id=$1`, roomID)
	return err
}

func (r *RoomRepository) Load(ctx context.Context, roomID string) ([]domain.DrawCommand, error) {
	rows, err := r.db.Query(ctx, `
		SELECT kind, x, y, color, line_width, created_at
		FROM room_commands
		WHERE room_id=$1
		ORDER BY id ASC`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DrawCommand
	for rows.Next() {
		var (
			kind      string
			x, y, lw  *float64
			color     *string
			createdAt time.Time
		)
		if err := rows.Scan(&kind, &x, &y, &color, &lw, &createdAt); err != nil {
			return nil, err
		}
		cmd := domain.DrawCommand{Type: domain.CommandType(kind), Timestamp: createdAt}
		if x != nil {
			cmd.X = *x
		}
		if y != nil {
			cmd.Y = *y
		}
		if color != nil {
			cmd.Color = *color
		}
		if lw != nil {
			cmd.LineWidth = *lw
		}
		out = append(out, cmd)
	}
	return out, rows.Err()
}

func (r *RoomRepository) SetActiveUsers(ctx context.Context, roomID string, n int) error {
	_, err := r.db.Exec(ctx,
		`UPDATE rooms SET active_users=$2 WHERE room_id=$1`, roomID, n)
	return err
}

func (r *RoomRepository) TouchActivity(ctx context.Context, roomID string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE rooms SET last_activity = now() WHERE room_id=$1`, roomID)
	return err
}

func (r *RoomRepository) Delete(ctx context.Context, roomID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM room_commands WHERE room_id=$1`, roomID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM rooms WHERE room_id=$1`, roomID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *RoomRepository) ExpiredRooms(ctx context.Context, olderThan time.Time) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT room_id FROM rooms WHERE last_activity < $1`, olderThan)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *RoomRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
