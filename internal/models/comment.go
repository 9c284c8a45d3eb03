package models

import "time"

// Comment is a free-text note on a reminder, append-only and ordered by
// creation time.
type Comment struct {
	ID         string    `json:"id" db:"id"`
	ReminderID string    `json:"reminder_id" db:"reminder_id"`
	Author     string    `json:"author" db:"author"`
	Message    string    `json:"message" db:"message"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
