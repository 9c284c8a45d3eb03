package models

import "time"

// Tag is a room-scoped label attachable to multiple reminders.
type Tag struct {
	ID        string    `json:"id" db:"id"`
	RoomCode  string    `json:"room_code" db:"room_code"`
	Name      string    `json:"name" db:"name"`
	Color     string    `json:"color" db:"color"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
