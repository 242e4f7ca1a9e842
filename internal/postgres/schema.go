package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS rooms (
		room_id       text PRIMARY KEY,
		created_at    timestamptz NOT NULL DEFAULT now(),
		last_activity timestamptz NOT NULL DEFAULT now(),
		active_users  int NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS room_commands (
		id         bigserial PRIMARY KEY,
		room_id    text NOT NULL,
		kind       text NOT NULL,
		x          double precision,
		y          double precision,
		color      text,
		line_width double precision,
		created_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_room_commands_room ON room_commands (room_id, id)`,
	`CREATE INDEX IF NOT EXISTS idx_rooms_last_activity ON rooms (last_activity)`,
}

// Migrate applies the schema. Statements are idempotent, so running it on
// every start is safe.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
