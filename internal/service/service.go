package service

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/javiortega/roomboard/internal/repository"
)

// Service is the business logic layer over the store repositories.
type Service struct {
	logger      *logrus.Logger
	Rooms       repository.RoomRepository
	Reminders   repository.ReminderRepository
	People      repository.PersonRepository
	Tags        repository.TagRepository
	Comments    repository.CommentRepository
	Memberships repository.MembershipRepository
	Users       repository.UserRepository
}

// New creates a new Service with all required dependencies.
func New(logger *logrus.Logger,
	rooms repository.RoomRepository,
	reminders repository.ReminderRepository,
	people repository.PersonRepository,
	tags repository.TagRepository,
	comments repository.CommentRepository,
	memberships repository.MembershipRepository,
	users repository.UserRepository,
) *Service {
	return &Service{
		logger: logger,
		Rooms:  rooms, Reminders: reminders, People: people,
		Tags: tags, Comments: comments, Memberships: memberships,
		Users: users,
	}
}

// ValidationError marks input rejected before any store request is issued.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}
