package service_test

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javiortega/roomboard/internal/models"
	"github.com/javiortega/roomboard/internal/repository"
	"github.com/javiortega/roomboard/internal/service"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// fakeRoomRepo scripts Create outcomes and records every mutation.
type fakeRoomRepo struct {
	createErrs  []error // popped per Create call; nil means success
	createCalls int
	created     []*models.Room

	rooms  []*models.Room
	secret *string

	privacyCalls int
	lastLocked   bool
	lastCode     *string

	deleted []string
}

func (f *fakeRoomRepo) Create(_ context.Context, room *models.Room) (*models.Room, error) {
	f.createCalls++
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	f.created = append(f.created, room)
	return room, nil
}

func (f *fakeRoomRepo) List(_ context.Context) ([]*models.Room, error) { return f.rooms, nil }

func (f *fakeRoomRepo) GetByID(_ context.Context, id string) (*models.Room, error) {
	for _, room := range f.rooms {
		if room.ID == id {
			return room, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRoomRepo) GetByCode(_ context.Context, code string) (*models.Room, error) {
	for _, room := range f.rooms {
		if room.Code == code {
			return room, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRoomRepo) GetSecret(_ context.Context, _ string) (*string, error) {
	return f.secret, nil
}

func (f *fakeRoomRepo) SetPrivacy(_ context.Context, _ string, locked bool, accessCode *string) error {
	f.privacyCalls++
	f.lastLocked = locked
	f.lastCode = accessCode
	return nil
}

func (f *fakeRoomRepo) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func newRoomService(rooms *fakeRoomRepo) *service.Service {
	return service.New(testLogger(), rooms, nil, nil, nil, nil, nil, nil)
}

func TestCreateRoom(t *testing.T) {
	repo := &fakeRoomRepo{}
	svc := newRoomService(repo)

	room, err := svc.CreateRoom(context.Background(), "  Ops  ", " 1234 ", "owner-1")
	require.NoError(t, err)

	assert.Equal(t, "Ops", room.Name)
	assert.Len(t, room.Code, 6)
	assert.True(t, room.IsLocked, "a supplied access code locks the room")
	require.NotNil(t, room.AccessCode)
	assert.Equal(t, "1234", *room.AccessCode)
	require.NotNil(t, room.CreatedBy)
	assert.Equal(t, "owner-1", *room.CreatedBy)
	assert.Equal(t, 1, repo.createCalls)
}

func TestCreateRoomUnlockedWithoutCode(t *testing.T) {
	repo := &fakeRoomRepo{}
	svc := newRoomService(repo)

	room, err := svc.CreateRoom(context.Background(), "Open", "   ", "")
	require.NoError(t, err)

	assert.False(t, room.IsLocked, "a blank access code leaves the room public")
	assert.Nil(t, room.AccessCode)
	assert.Nil(t, room.CreatedBy)
}

func TestCreateRoomRequiresName(t *testing.T) {
	repo := &fakeRoomRepo{}
	svc := newRoomService(repo)

	_, err := svc.CreateRoom(context.Background(), "   ", "", "")

	var vErr *service.ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Zero(t, repo.createCalls, "no insert is attempted for invalid input")
}

func TestCreateRoomRetriesOnCodeCollision(t *testing.T) {
	repo := &fakeRoomRepo{createErrs: []error{
		repository.ErrCodeTaken,
		repository.ErrCodeTaken,
		nil,
	}}
	svc := newRoomService(repo)

	room, err := svc.CreateRoom(context.Background(), "Ops", "", "")
	require.NoError(t, err)
	assert.Equal(t, 3, repo.createCalls, "each collision regenerates and retries")
	assert.NotEmpty(t, room.Code)
}

func TestCreateRoomGivesUpAfterThreeCollisions(t *testing.T) {
	repo := &fakeRoomRepo{createErrs: []error{
		repository.ErrCodeTaken,
		repository.ErrCodeTaken,
		repository.ErrCodeTaken,
	}}
	svc := newRoomService(repo)

	_, err := svc.CreateRoom(context.Background(), "Ops", "", "")
	assert.ErrorIs(t, err, service.ErrCodeExhausted)
	assert.Equal(t, 3, repo.createCalls)
}

func TestVerifyRoomAccess(t *testing.T) {
	secret := "1234"
	repo := &fakeRoomRepo{secret: &secret}
	svc := newRoomService(repo)
	ctx := context.Background()

	ok, err := svc.VerifyRoomAccess(ctx, "r1", "1234")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.VerifyRoomAccess(ctx, "r1", "  1234  ")
	require.NoError(t, err)
	assert.True(t, ok, "surrounding whitespace is trimmed")

	ok, err = svc.VerifyRoomAccess(ctx, "r1", "1235")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.VerifyRoomAccess(ctx, "r1", "12 34")
	require.NoError(t, err)
	assert.False(t, ok, "inner whitespace is not stripped")
}

func TestVerifyRoomAccessPublicRoomNeverMatches(t *testing.T) {
	repo := &fakeRoomRepo{}
	svc := newRoomService(repo)

	ok, err := svc.VerifyRoomAccess(context.Background(), "r1", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLockRoomRequiresCode(t *testing.T) {
	repo := &fakeRoomRepo{}
	svc := newRoomService(repo)

	err := svc.LockRoom(context.Background(), "r1", "   ")

	var vErr *service.ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Zero(t, repo.privacyCalls, "nothing is written on invalid input")
}

func TestLockRoom(t *testing.T) {
	repo := &fakeRoomRepo{}
	svc := newRoomService(repo)

	require.NoError(t, svc.LockRoom(context.Background(), "r1", " 9999 "))
	assert.Equal(t, 1, repo.privacyCalls)
	assert.True(t, repo.lastLocked)
	require.NotNil(t, repo.lastCode)
	assert.Equal(t, "9999", *repo.lastCode)
}

func TestUnlockRoomRequiresConfirmation(t *testing.T) {
	secret := "1234"
	repo := &fakeRoomRepo{secret: &secret}
	svc := newRoomService(repo)

	err := svc.UnlockRoom(context.Background(), "r1", "1235")
	assert.ErrorIs(t, err, service.ErrWrongAccessCode)
	assert.Zero(t, repo.privacyCalls, "a failed confirmation mutates nothing")

	require.NoError(t, svc.UnlockRoom(context.Background(), "r1", "1234"))
	assert.Equal(t, 1, repo.privacyCalls)
	assert.False(t, repo.lastLocked)
	assert.Nil(t, repo.lastCode)
}

func TestDeleteRoomLockedRequiresCode(t *testing.T) {
	secret := "1234"
	repo := &fakeRoomRepo{secret: &secret}
	svc := newRoomService(repo)
	room := &models.Room{ID: "r1", Name: "Ops", Code: "ABCDEF", IsLocked: true}

	err := svc.DeleteRoom(context.Background(), room, "nope")
	assert.ErrorIs(t, err, service.ErrWrongAccessCode)
	assert.Empty(t, repo.deleted)

	require.NoError(t, svc.DeleteRoom(context.Background(), room, "1234"))
	assert.Equal(t, []string{"r1"}, repo.deleted)
}

func TestDeleteRoomPublicSkipsVerification(t *testing.T) {
	repo := &fakeRoomRepo{}
	svc := newRoomService(repo)
	room := &models.Room{ID: "r2", Name: "Open", Code: "ABCDEF"}

	require.NoError(t, svc.DeleteRoom(context.Background(), room, ""))
	assert.Equal(t, []string{"r2"}, repo.deleted)
}
