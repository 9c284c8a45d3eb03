package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/javiortega/roomboard/internal/models"
	"github.com/javiortega/roomboard/internal/repository"
)

// roomCodeAttempts bounds the regenerate-and-retry loop on code collisions.
const roomCodeAttempts = 3

// ErrCodeExhausted is returned when all collision retries are used up.
var ErrCodeExhausted = errors.New("could not generate a unique code")

// ErrWrongAccessCode is returned when a supplied access code does not match
// the room's stored secret.
var ErrWrongAccessCode = errors.New("incorrect code")

// CreateRoom inserts a new room with a generated code. A non-empty access
// code makes the room locked from the start. On a code collision the insert
// is retried with a fresh code, up to roomCodeAttempts times in total.
func (s *Service) CreateRoom(ctx context.Context, name, accessCode, ownerID string) (*models.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationErrorf("room name is required")
	}
	accessCode = strings.TrimSpace(accessCode)

	var owner *string
	if ownerID != "" {
		owner = &ownerID
	}
	var secret *string
	if accessCode != "" {
		secret = &accessCode
	}

	for attempt := 0; attempt < roomCodeAttempts; attempt++ {
		room := &models.Room{
			ID:         uuid.NewString(),
			Name:       name,
			Code:       GenerateRoomCode(),
			IsLocked:   secret != nil,
			AccessCode: secret,
			CreatedBy:  owner,
		}
		created, err := s.Rooms.Create(ctx, room)
		if err != nil {
			if errors.Is(err, repository.ErrCodeTaken) {
				s.logger.WithField("code", room.Code).Debug("room code collision, retrying")
				continue
			}
			return nil, fmt.Errorf("failed to create room: %w", err)
		}
		s.logger.WithField("code", created.Code).Infof("Created room %q", created.Name)
		return created, nil
	}
	return nil, ErrCodeExhausted
}

// VerifyRoomAccess reads the stored secret and compares it against the
// supplied code, trimmed and case-sensitive. A nil stored secret never
// matches.
func (s *Service) VerifyRoomAccess(ctx context.Context, roomID, code string) (bool, error) {
	secret, err := s.Rooms.GetSecret(ctx, roomID)
	if err != nil {
		return false, fmt.Errorf("failed to verify room access: %w", err)
	}
	return secret != nil && *secret == strings.TrimSpace(code), nil
}

// LockRoom turns a public room private. The new access code must be
// non-empty after trimming; is_locked and access_code change in one update.
func (s *Service) LockRoom(ctx context.Context, roomID, newAccessCode string) error {
	newAccessCode = strings.TrimSpace(newAccessCode)
	if newAccessCode == "" {
		return validationErrorf("an access code is required to make the room private")
	}
	if err := s.Rooms.SetPrivacy(ctx, roomID, true, &newAccessCode); err != nil {
		return fmt.Errorf("failed to lock room: %w", err)
	}
	return nil
}

// UnlockRoom turns a private room public. The current access code has to be
// re-supplied; a failed confirmation changes nothing.
func (s *Service) UnlockRoom(ctx context.Context, roomID, currentAccessCode string) error {
	ok, err := s.VerifyRoomAccess(ctx, roomID, currentAccessCode)
	if err != nil {
		return err
	}
	if !ok {
		return ErrWrongAccessCode
	}
	if err := s.Rooms.SetPrivacy(ctx, roomID, false, nil); err != nil {
		return fmt.Errorf("failed to unlock room: %w", err)
	}
	return nil
}

// DeleteRoom removes a room. For a locked room the access code is verified
// by read-then-compare before the delete is issued.
func (s *Service) DeleteRoom(ctx context.Context, room *models.Room, accessCode string) error {
	if room.IsLocked {
		ok, err := s.VerifyRoomAccess(ctx, room.ID, accessCode)
		if err != nil {
			return err
		}
		if !ok {
			return ErrWrongAccessCode
		}
	}
	if err := s.Rooms.Delete(ctx, room.ID); err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	s.logger.WithField("code", room.Code).Infof("Deleted room %q", room.Name)
	return nil
}

// ListRooms returns every room, newest first.
func (s *Service) ListRooms(ctx context.Context) ([]*models.Room, error) {
	return s.Rooms.List(ctx)
}

// GetRoomByCode looks a room up by its shareable code.
func (s *Service) GetRoomByCode(ctx context.Context, code string) (*models.Room, error) {
	return s.Rooms.GetByCode(ctx, strings.TrimSpace(code))
}

// InviteToRoom adds an email to a room's advisory visibility list.
func (s *Service) InviteToRoom(ctx context.Context, roomCode, email string) (*models.RoomInvitation, error) {
	email = strings.TrimSpace(email)
	if !validEmail(email) {
		return nil, validationErrorf("a valid email is required")
	}
	return s.Memberships.Invite(ctx, &models.RoomInvitation{
		ID:       uuid.NewString(),
		RoomCode: roomCode,
		Email:    email,
	})
}

// ListInvitations returns the pending email invitations for a room.
func (s *Service) ListInvitations(ctx context.Context, roomCode string) ([]*models.RoomInvitation, error) {
	return s.Memberships.ListInvitations(ctx, roomCode)
}

// ListRoomMembers returns the user ids on a room's visibility list.
func (s *Service) ListRoomMembers(ctx context.Context, roomCode string) ([]*models.RoomMembership, error) {
	return s.Memberships.ListMembers(ctx, roomCode)
}

// AddRoomMember records a user id on a room's visibility list.
func (s *Service) AddRoomMember(ctx context.Context, roomCode, userID string) (*models.RoomMembership, error) {
	if userID == "" {
		return nil, validationErrorf("a user id is required")
	}
	return s.Memberships.AddMember(ctx, &models.RoomMembership{
		ID:       uuid.NewString(),
		RoomCode: roomCode,
		UserID:   userID,
	})
}
