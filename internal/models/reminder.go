package models

import "time"

// Priority represents the urgency level of a reminder
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Weight maps a priority to its position in the total order
// urgent > high > medium > low. Unknown values count as medium.
func (p Priority) Weight() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityLow:
		return 1
	default:
		return 2
	}
}

// Valid reports whether p is one of the four known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Reminder represents a task scoped to one room. Assignees holds person ids;
// the first element is the primary assignee for display.
type Reminder struct {
	ID          string     `json:"id" db:"id"`
	RoomCode    string     `json:"room_code" db:"room_code"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	DueDate     *time.Time `json:"due_date" db:"due_date"`
	Priority    Priority   `json:"priority" db:"priority"`
	Progress    int        `json:"progress" db:"progress"`
	Assignees   []string   `json:"assignees,omitempty"`
	Tags        []Tag      `json:"tags,omitempty"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// IsExpired returns true if the reminder has a due date strictly in the past.
// Classification is recomputed against the supplied clock, never stored.
func (r *Reminder) IsExpired(now time.Time) bool {
	return r.DueDate != nil && r.DueDate.Before(now)
}

// PrimaryAssignee returns the display assignee, or "" when unassigned.
func (r *Reminder) PrimaryAssignee() string {
	if len(r.Assignees) == 0 {
		return ""
	}
	return r.Assignees[0]
}

// HasTag returns true if the reminder carries the given tag id.
func (r *Reminder) HasTag(tagID string) bool {
	for _, t := range r.Tags {
		if t.ID == tagID {
			return true
		}
	}
	return false
}

// ClampProgress bounds a progress value to [0, 100].
func ClampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
