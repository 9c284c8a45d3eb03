package models

import "time"

// Room represents a shared reminder board identified by a 6-character code.
type Room struct {
	ID         string    `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	Code       string    `json:"code" db:"code"`
	IsLocked   bool      `json:"is_locked" db:"is_locked"`
	AccessCode *string   `json:"-" db:"access_code"`
	CreatedBy  *string   `json:"created_by" db:"created_by"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// IsOwnedBy returns true if the room was created by the given user.
func (r *Room) IsOwnedBy(userID string) bool {
	return r.CreatedBy != nil && userID != "" && *r.CreatedBy == userID
}

// RoomInvitation grants a non-owner visibility into a room by email.
// It is an advisory visibility list, not a mutation capability.
type RoomInvitation struct {
	ID        string    `json:"id" db:"id"`
	RoomCode  string    `json:"room_code" db:"room_code"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// RoomMembership records a user id that can see a room.
type RoomMembership struct {
	ID        string    `json:"id" db:"id"`
	RoomCode  string    `json:"room_code" db:"room_code"`
	UserID    string    `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
