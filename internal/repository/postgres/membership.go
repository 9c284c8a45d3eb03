package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/javiortega/roomboard/internal/models"
	"github.com/javiortega/roomboard/internal/repository"
)

type membershipRepository struct {
	db *sql.DB
}

func NewMembershipRepository(db *sql.DB) repository.MembershipRepository {
	return &membershipRepository{db: db}
}

func (r *membershipRepository) Invite(ctx context.Context, inv *models.RoomInvitation) (*models.RoomInvitation, error) {
	query := `INSERT INTO room_invitations (id, room_code, email, created_at)
		VALUES ($1, $2, $3, $4) RETURNING created_at`
	inv.CreatedAt = time.Now()
	err := r.db.QueryRowContext(ctx, query,
		inv.ID, inv.RoomCode, inv.Email, inv.CreatedAt,
	).Scan(&inv.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}
	return inv, nil
}

func (r *membershipRepository) ListInvitations(ctx context.Context, roomCode string) ([]*models.RoomInvitation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, room_code, email, created_at
		FROM room_invitations WHERE room_code = $1 ORDER BY created_at`, roomCode)
	if err != nil {
		return nil, fmt.Errorf("failed to query invitations: %w", err)
	}
	defer rows.Close()

	var invitations []*models.RoomInvitation
	for rows.Next() {
		inv := &models.RoomInvitation{}
		if err := rows.Scan(&inv.ID, &inv.RoomCode, &inv.Email, &inv.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

func (r *membershipRepository) AddMember(ctx context.Context, m *models.RoomMembership) (*models.RoomMembership, error) {
	query := `INSERT INTO room_memberships (id, room_code, user_id, created_at)
		VALUES ($1, $2, $3, $4) RETURNING created_at`
	m.CreatedAt = time.Now()
	err := r.db.QueryRowContext(ctx, query,
		m.ID, m.RoomCode, m.UserID, m.CreatedAt,
	).Scan(&m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	return m, nil
}

func (r *membershipRepository) ListMembers(ctx context.Context, roomCode string) ([]*models.RoomMembership, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, room_code, user_id, created_at
		FROM room_memberships WHERE room_code = $1 ORDER BY created_at`, roomCode)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []*models.RoomMembership
	for rows.Next() {
		m := &models.RoomMembership{}
		if err := rows.Scan(&m.ID, &m.RoomCode, &m.UserID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *membershipRepository) RemoveMember(ctx context.Context, roomCode, userID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM room_memberships WHERE room_code = $1 AND user_id = $2`,
		roomCode, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
