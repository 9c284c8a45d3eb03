package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/javiortega/roomboard/internal/models"
)

// CreateReminderInput carries the user-editable fields of a new reminder.
type CreateReminderInput struct {
	Title       string
	Description string
	DueDate     *time.Time
	Priority    models.Priority
	Assignees   []string
}

// CreateReminder validates and inserts a reminder into a room.
func (s *Service) CreateReminder(ctx context.Context, roomCode string, in CreateReminderInput) (*models.Reminder, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, validationErrorf("title is required")
	}
	priority := in.Priority
	if !priority.Valid() {
		priority = models.PriorityMedium
	}
	reminder := &models.Reminder{
		ID:          uuid.NewString(),
		RoomCode:    roomCode,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		DueDate:     in.DueDate,
		Priority:    priority,
		Progress:    0,
		Assignees:   in.Assignees,
	}
	return s.Reminders.Create(ctx, reminder)
}

// UpdateReminder edits title, description, due date and priority in place.
func (s *Service) UpdateReminder(ctx context.Context, id string, in CreateReminderInput) (*models.Reminder, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, validationErrorf("title is required")
	}
	reminder, err := s.Reminders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	reminder.Title = title
	reminder.Description = strings.TrimSpace(in.Description)
	reminder.DueDate = in.DueDate
	if in.Priority.Valid() {
		reminder.Priority = in.Priority
	}
	updated, err := s.Reminders.Update(ctx, reminder)
	if err != nil {
		return nil, err
	}
	if in.Assignees != nil {
		if err := s.Reminders.SetAssignees(ctx, id, in.Assignees); err != nil {
			return nil, err
		}
		updated.Assignees = in.Assignees
	}
	return updated, nil
}

// UpdateProgress clamps the value to [0, 100] and patches only progress and
// updated_at, so callers can patch their local copy without a re-fetch.
func (s *Service) UpdateProgress(ctx context.Context, id string, progress int) (int, time.Time, error) {
	clamped := models.ClampProgress(progress)
	updatedAt, err := s.Reminders.UpdateProgress(ctx, id, clamped)
	if err != nil {
		return 0, time.Time{}, err
	}
	return clamped, updatedAt, nil
}

// DeleteReminder removes a single reminder.
func (s *Service) DeleteReminder(ctx context.Context, id string) error {
	return s.Reminders.Delete(ctx, id)
}

// ClearRoom deletes every reminder in the room with one request.
func (s *Service) ClearRoom(ctx context.Context, roomCode string) error {
	if err := s.Reminders.DeleteByRoom(ctx, roomCode); err != nil {
		return err
	}
	s.logger.WithField("room_code", roomCode).Info("Cleared all reminders")
	return nil
}

// ListReminders returns the room's reminders, newest first, with assignees
// and tags attached.
func (s *Service) ListReminders(ctx context.Context, roomCode string) ([]*models.Reminder, error) {
	return s.Reminders.ListByRoom(ctx, roomCode)
}

// AddComment appends a comment to a reminder.
func (s *Service) AddComment(ctx context.Context, reminderID, author, message string) (*models.Comment, error) {
	author = strings.TrimSpace(author)
	message = strings.TrimSpace(message)
	if author == "" || message == "" {
		return nil, validationErrorf("author and message are required")
	}
	return s.Comments.Create(ctx, &models.Comment{
		ID:         uuid.NewString(),
		ReminderID: reminderID,
		Author:     author,
		Message:    message,
	})
}

// ListComments returns a reminder's comments in creation order.
func (s *Service) ListComments(ctx context.Context, reminderID string) ([]*models.Comment, error) {
	return s.Comments.ListByReminder(ctx, reminderID)
}

// AssignTag attaches a room tag to a reminder.
func (s *Service) AssignTag(ctx context.Context, reminderID, tagID string) error {
	if err := s.Tags.Assign(ctx, reminderID, tagID); err != nil {
		return fmt.Errorf("failed to assign tag: %w", err)
	}
	return nil
}

// UnassignTag detaches a tag from a reminder.
func (s *Service) UnassignTag(ctx context.Context, reminderID, tagID string) error {
	return s.Tags.Unassign(ctx, reminderID, tagID)
}
