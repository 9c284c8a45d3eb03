package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/javiortega/roomboard/internal/models"
	"github.com/javiortega/roomboard/internal/repository"
)

type tagRepository struct {
	db *sql.DB
}

func NewTagRepository(db *sql.DB) repository.TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) Create(ctx context.Context, tag *models.Tag) (*models.Tag, error) {
	query := `INSERT INTO reminder_tags (id, room_code, name, color, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at`
	tag.CreatedAt = time.Now()
	err := r.db.QueryRowContext(ctx, query,
		tag.ID, tag.RoomCode, tag.Name, tag.Color, tag.CreatedAt,
	).Scan(&tag.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}
	return tag, nil
}

func (r *tagRepository) ListByRoom(ctx context.Context, roomCode string) ([]*models.Tag, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, room_code, name, color, created_at
		FROM reminder_tags WHERE room_code = $1 ORDER BY name`, roomCode)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	var tags []*models.Tag
	for rows.Next() {
		tag := &models.Tag{}
		if err := rows.Scan(&tag.ID, &tag.RoomCode, &tag.Name, &tag.Color, &tag.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (r *tagRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reminder_tags WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *tagRepository) Assign(ctx context.Context, reminderID, tagID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reminder_tag_assignments (reminder_id, tag_id)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`, reminderID, tagID)
	if err != nil {
		return fmt.Errorf("failed to assign tag: %w", err)
	}
	return nil
}

func (r *tagRepository) Unassign(ctx context.Context, reminderID, tagID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM reminder_tag_assignments WHERE reminder_id = $1 AND tag_id = $2`,
		reminderID, tagID)
	if err != nil {
		return fmt.Errorf("failed to unassign tag: %w", err)
	}
	return nil
}

func (r *tagRepository) ListForReminder(ctx context.Context, reminderID string) ([]models.Tag, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.room_code, t.name, t.color, t.created_at
		FROM reminder_tag_assignments a
		JOIN reminder_tags t ON t.id = a.tag_id
		WHERE a.reminder_id = $1 ORDER BY t.name`, reminderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminder tags: %w", err)
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var tag models.Tag
		if err := rows.Scan(&tag.ID, &tag.RoomCode, &tag.Name, &tag.Color, &tag.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}
