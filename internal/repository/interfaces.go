package repository

import (
	"context"
	"time"

	"github.com/javiortega/roomboard/internal/models"
)

// RoomRepository defines the interface for room data operations
type RoomRepository interface {
	// Create inserts the room and returns ErrCodeTaken when the generated
	// code collides with an existing one.
	Create(ctx context.Context, room *models.Room) (*models.Room, error)
	List(ctx context.Context) ([]*models.Room, error)
	GetByID(ctx context.Context, id string) (*models.Room, error)
	GetByCode(ctx context.Context, code string) (*models.Room, error)
	// GetSecret reads only the stored access code for a room.
	GetSecret(ctx context.Context, id string) (*string, error)
	// SetPrivacy updates is_locked and access_code in one statement.
	SetPrivacy(ctx context.Context, id string, locked bool, accessCode *string) error
	Delete(ctx context.Context, id string) error
}

// ReminderRepository defines the interface for reminder data operations
type ReminderRepository interface {
	Create(ctx context.Context, reminder *models.Reminder) (*models.Reminder, error)
	GetByID(ctx context.Context, id string) (*models.Reminder, error)
	ListByRoom(ctx context.Context, roomCode string) ([]*models.Reminder, error)
	Update(ctx context.Context, reminder *models.Reminder) (*models.Reminder, error)
	// UpdateProgress patches progress and updated_at only, returning the new
	// updated_at so callers can patch local copies without a re-fetch.
	UpdateProgress(ctx context.Context, id string, progress int) (updatedAt time.Time, err error)
	Delete(ctx context.Context, id string) error
	DeleteByRoom(ctx context.Context, roomCode string) error
	BulkInsert(ctx context.Context, reminders []*models.Reminder) error
	SetAssignees(ctx context.Context, reminderID string, personIDs []string) error
}

// PersonRepository defines the interface for the people directory
type PersonRepository interface {
	Create(ctx context.Context, person *models.Person) (*models.Person, error)
	List(ctx context.Context) ([]*models.Person, error)
	GetByID(ctx context.Context, id string) (*models.Person, error)
	Update(ctx context.Context, person *models.Person) (*models.Person, error)
	// Delete fails with a conflict error while the person is still
	// referenced as an assignee.
	Delete(ctx context.Context, id string) error
}

// TagRepository defines the interface for room-scoped tags and their
// assignments to reminders.
type TagRepository interface {
	Create(ctx context.Context, tag *models.Tag) (*models.Tag, error)
	ListByRoom(ctx context.Context, roomCode string) ([]*models.Tag, error)
	Delete(ctx context.Context, id string) error
	Assign(ctx context.Context, reminderID, tagID string) error
	Unassign(ctx context.Context, reminderID, tagID string) error
	ListForReminder(ctx context.Context, reminderID string) ([]models.Tag, error)
}

// CommentRepository defines the interface for reminder comments
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	ListByReminder(ctx context.Context, reminderID string) ([]*models.Comment, error)
}

// MembershipRepository defines the interface for the advisory room
// visibility lists.
type MembershipRepository interface {
	Invite(ctx context.Context, inv *models.RoomInvitation) (*models.RoomInvitation, error)
	ListInvitations(ctx context.Context, roomCode string) ([]*models.RoomInvitation, error)
	AddMember(ctx context.Context, m *models.RoomMembership) (*models.RoomMembership, error)
	ListMembers(ctx context.Context, roomCode string) ([]*models.RoomMembership, error)
	RemoveMember(ctx context.Context, roomCode, userID string) error
}

// UserRepository defines the interface for account operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
