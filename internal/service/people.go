package service

import (
	"context"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/javiortega/roomboard/internal/models"
)

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	_, err := mail.ParseAddress(email)
	return err == nil
}

// AddPerson adds an entry to the people directory. Email is optional but
// must parse when present.
func (s *Service) AddPerson(ctx context.Context, name, email string, areas []string) (*models.Person, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationErrorf("name is required")
	}
	email = strings.TrimSpace(email)
	if email != "" && !validEmail(email) {
		return nil, validationErrorf("email %q is not valid", email)
	}
	return s.People.Create(ctx, &models.Person{
		ID:    uuid.NewString(),
		Name:  name,
		Email: email,
		Areas: areas,
	})
}

// UpdatePerson edits a directory entry.
func (s *Service) UpdatePerson(ctx context.Context, person *models.Person) (*models.Person, error) {
	person.Name = strings.TrimSpace(person.Name)
	if person.Name == "" {
		return nil, validationErrorf("name is required")
	}
	person.Email = strings.TrimSpace(person.Email)
	if person.Email != "" && !validEmail(person.Email) {
		return nil, validationErrorf("email %q is not valid", person.Email)
	}
	return s.People.Update(ctx, person)
}

// DeletePerson removes a directory entry. The store blocks deletion while
// the person is referenced by any reminder.
func (s *Service) DeletePerson(ctx context.Context, id string) error {
	return s.People.Delete(ctx, id)
}

// ListPeople returns the directory sorted by name.
func (s *Service) ListPeople(ctx context.Context) ([]*models.Person, error) {
	return s.People.List(ctx)
}

// CreateTag adds a room-scoped tag.
func (s *Service) CreateTag(ctx context.Context, roomCode, name, color string) (*models.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationErrorf("tag name is required")
	}
	return s.Tags.Create(ctx, &models.Tag{
		ID:       uuid.NewString(),
		RoomCode: roomCode,
		Name:     name,
		Color:    color,
	})
}

// DeleteTag removes a tag and its assignments.
func (s *Service) DeleteTag(ctx context.Context, id string) error {
	return s.Tags.Delete(ctx, id)
}

// ListTags returns the room's tags.
func (s *Service) ListTags(ctx context.Context, roomCode string) ([]*models.Tag, error) {
	return s.Tags.ListByRoom(ctx, roomCode)
}
