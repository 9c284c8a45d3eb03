package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javiortega/roomboard/internal/models"
	"github.com/javiortega/roomboard/internal/service"
)

func TestCreateReminderDefaults(t *testing.T) {
	repo := newFakeReminderRepo()
	svc := newReminderService(repo)

	created, err := svc.CreateReminder(context.Background(), "ABCDEF", service.CreateReminderInput{
		Title:    "  Water the plants  ",
		Priority: "critical",
	})
	require.NoError(t, err)

	assert.Equal(t, "Water the plants", created.Title)
	assert.Equal(t, models.PriorityMedium, created.Priority, "unknown priority falls back to medium")
	assert.Zero(t, created.Progress)
	assert.Equal(t, "ABCDEF", created.RoomCode)
}

func TestCreateReminderRequiresTitle(t *testing.T) {
	repo := newFakeReminderRepo()
	svc := newReminderService(repo)

	_, err := svc.CreateReminder(context.Background(), "ABCDEF", service.CreateReminderInput{Title: "  "})

	var vErr *service.ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Empty(t, repo.byID)
}

func TestUpdateProgressClamps(t *testing.T) {
	repo := newFakeReminderRepo()
	svc := newReminderService(repo)
	repo.byID["r1"] = &models.Reminder{ID: "r1", Title: "X"}

	progress, updatedAt, err := svc.UpdateProgress(context.Background(), "r1", 150)
	require.NoError(t, err)
	assert.Equal(t, 100, progress)
	assert.False(t, updatedAt.IsZero())
	assert.Equal(t, 100, repo.byID["r1"].Progress)

	progress, _, err = svc.UpdateProgress(context.Background(), "r1", -5)
	require.NoError(t, err)
	assert.Equal(t, 0, progress)
}

func TestAddCommentValidation(t *testing.T) {
	svc := service.New(testLogger(), nil, nil, nil, nil, nil, nil, nil)

	_, err := svc.AddComment(context.Background(), "r1", "  ", "hello")
	var vErr *service.ValidationError
	assert.ErrorAs(t, err, &vErr)

	_, err = svc.AddComment(context.Background(), "r1", "ana", "  ")
	assert.ErrorAs(t, err, &vErr)
}

func TestUpdateReminderKeepsPriorityWhenInvalid(t *testing.T) {
	repo := newFakeReminderRepo()
	svc := newReminderService(repo)
	due := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	repo.byID["r1"] = &models.Reminder{ID: "r1", Title: "Old", Priority: models.PriorityHigh}

	updated, err := svc.UpdateReminder(context.Background(), "r1", service.CreateReminderInput{
		Title:   "New title",
		DueDate: &due,
	})
	require.NoError(t, err)

	assert.Equal(t, "New title", updated.Title)
	assert.Equal(t, models.PriorityHigh, updated.Priority, "an absent priority leaves the old one")
	require.NotNil(t, updated.DueDate)
	assert.Equal(t, due, *updated.DueDate)
}
