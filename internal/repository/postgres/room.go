package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/javiortega/roomboard/internal/models"
	"github.com/javiortega/roomboard/internal/repository"
)

type roomRepository struct {
	db *sql.DB
}

func NewRoomRepository(db *sql.DB) repository.RoomRepository {
	return &roomRepository{db: db}
}

func (r *roomRepository) Create(ctx context.Context, room *models.Room) (*models.Room, error) {
	query := `INSERT INTO rooms (id, name, code, is_locked, access_code, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`
	room.CreatedAt = time.Now()
	err := r.db.QueryRowContext(ctx, query,
		room.ID, room.Name, room.Code, room.IsLocked,
		room.AccessCode, room.CreatedBy, room.CreatedAt,
	).Scan(&room.CreatedAt)
	if err != nil {
		if repository.IsUniqueViolation(err, "rooms_code_key") {
			return nil, repository.ErrCodeTaken
		}
		return nil, fmt.Errorf("failed to create room: %w", err)
	}
	return room, nil
}

func (r *roomRepository) List(ctx context.Context) ([]*models.Room, error) {
	query := `SELECT id, name, code, is_locked, created_by, created_at
		FROM rooms ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*models.Room
	for rows.Next() {
		room := &models.Room{}
		if err := rows.Scan(
			&room.ID, &room.Name, &room.Code, &room.IsLocked,
			&room.CreatedBy, &room.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (r *roomRepository) GetByID(ctx context.Context, id string) (*models.Room, error) {
	return r.getOne(ctx, `SELECT id, name, code, is_locked, created_by, created_at
		FROM rooms WHERE id = $1`, id)
}

func (r *roomRepository) GetByCode(ctx context.Context, code string) (*models.Room, error) {
	return r.getOne(ctx, `SELECT id, name, code, is_locked, created_by, created_at
		FROM rooms WHERE code = $1`, code)
}

func (r *roomRepository) getOne(ctx context.Context, query string, arg any) (*models.Room, error) {
	room := &models.Room{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&room.ID, &room.Name, &room.Code, &room.IsLocked,
		&room.CreatedBy, &room.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return room, nil
}

func (r *roomRepository) GetSecret(ctx context.Context, id string) (*string, error) {
	var secret *string
	err := r.db.QueryRowContext(ctx,
		`SELECT access_code FROM rooms WHERE id = $1`, id).Scan(&secret)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read room access code: %w", err)
	}
	return secret, nil
}

func (r *roomRepository) SetPrivacy(ctx context.Context, id string, locked bool, accessCode *string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE rooms SET is_locked = $2, access_code = $3 WHERE id = $1`,
		id, locked, accessCode)
	if err != nil {
		return fmt.Errorf("failed to update room privacy: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *roomRepository) Delete(ctx context.Context, id string) error {
	// Reminders, tags, comments and visibility lists cascade at the schema
	// layer.
	result, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
