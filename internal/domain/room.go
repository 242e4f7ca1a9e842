package domain

import "time"

type Room struct {
	ID           string    `db:"room_id"`
	CreatedAt    time.Time `db:"created_at"`
	LastActivity time.Time `db:"last_activity"`
	ActiveUsers  int       `db:"active_users"`
}
