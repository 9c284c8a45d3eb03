// Package auth implements email/password sessions: bcrypt hashes in the
// users table, JWT bearer tokens on the wire.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/javiortega/roomboard/internal/models"
	"github.com/javiortega/roomboard/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Claims are the JWT claims carried by a session token.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Manager registers accounts, verifies credentials and issues session
// tokens.
type Manager struct {
	users         repository.UserRepository
	secretKey     []byte
	tokenDuration time.Duration
}

// NewManager creates a Manager signing tokens with the given secret.
func NewManager(users repository.UserRepository, secret string, tokenDuration time.Duration) *Manager {
	return &Manager{
		users:         users,
		secretKey:     []byte(secret),
		tokenDuration: tokenDuration,
	}
}

// Register creates an account with a bcrypt password hash.
func (m *Manager) Register(ctx context.Context, email, password string) (*models.User, error) {
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}
	if existing, err := m.users.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, ErrEmailExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return m.users.Create(ctx, &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
	})
}

// Authenticate verifies the email and password, returning the user when
// valid. Lookup failure and hash mismatch report the same error.
func (m *Manager) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := m.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// IssueToken creates a signed session token for a user.
func (m *Manager) IssueToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a session token.
func (m *Manager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secretKey, nil
		})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
