package models

import "time"

// Person is a directory entry that reminders reference as assignee.
type Person struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Areas     []string  `json:"areas" db:"areas"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
