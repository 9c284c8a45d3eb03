package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javiortega/roomboard/internal/auth"
	"github.com/javiortega/roomboard/internal/models"
	"github.com/javiortega/roomboard/internal/repository"
)

type memUserRepo struct {
	byEmail map[string]*models.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byEmail: make(map[string]*models.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *models.User) (*models.User, error) {
	user.CreatedAt = time.Now()
	r.byEmail[user.Email] = user
	return user, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if user, ok := r.byEmail[email]; ok {
		return user, nil
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	for _, user := range r.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func TestRegisterAndAuthenticate(t *testing.T) {
	mgr := auth.NewManager(newMemUserRepo(), "test-secret", time.Hour)
	ctx := context.Background()

	user, err := mgr.Register(ctx, "ana@example.com", "long-enough")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "long-enough", user.PasswordHash, "password is stored hashed")

	got, err := mgr.Authenticate(ctx, "ana@example.com", "long-enough")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = mgr.Authenticate(ctx, "ana@example.com", "wrong-password")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = mgr.Authenticate(ctx, "nobody@example.com", "long-enough")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials, "unknown email reports the same error")
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	mgr := auth.NewManager(newMemUserRepo(), "test-secret", time.Hour)

	_, err := mgr.Register(context.Background(), "ana@example.com", "short")
	assert.ErrorIs(t, err, auth.ErrWeakPassword)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	mgr := auth.NewManager(newMemUserRepo(), "test-secret", time.Hour)
	ctx := context.Background()

	_, err := mgr.Register(ctx, "ana@example.com", "long-enough")
	require.NoError(t, err)

	_, err = mgr.Register(ctx, "ana@example.com", "another-pass")
	assert.ErrorIs(t, err, auth.ErrEmailExists)
}

func TestTokenRoundTrip(t *testing.T) {
	mgr := auth.NewManager(newMemUserRepo(), "test-secret", time.Hour)
	user := &models.User{ID: "u1", Email: "ana@example.com"}

	token, err := mgr.IssueToken(user)
	require.NoError(t, err)

	claims, err := mgr.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "ana@example.com", claims.Email)
}

func TestValidateTokenRejectsWrongKey(t *testing.T) {
	user := &models.User{ID: "u1", Email: "ana@example.com"}
	token, err := auth.NewManager(newMemUserRepo(), "secret-a", time.Hour).IssueToken(user)
	require.NoError(t, err)

	_, err = auth.NewManager(newMemUserRepo(), "secret-b", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	user := &models.User{ID: "u1", Email: "ana@example.com"}
	mgr := auth.NewManager(newMemUserRepo(), "test-secret", -time.Minute)
	token, err := mgr.IssueToken(user)
	require.NoError(t, err)

	_, err = mgr.ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
