package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/javiortega/roomboard/internal/models"
	"github.com/javiortega/roomboard/internal/repository"
)

type commentRepository struct {
	db *sql.DB
}

func NewCommentRepository(db *sql.DB) repository.CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	query := `INSERT INTO reminder_comments (id, reminder_id, author, message, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at`
	comment.CreatedAt = time.Now()
	err := r.db.QueryRowContext(ctx, query,
		comment.ID, comment.ReminderID, comment.Author, comment.Message, comment.CreatedAt,
	).Scan(&comment.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return comment, nil
}

func (r *commentRepository) ListByReminder(ctx context.Context, reminderID string) ([]*models.Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, reminder_id, author, message, created_at
		FROM reminder_comments WHERE reminder_id = $1 ORDER BY created_at`, reminderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		comment := &models.Comment{}
		if err := rows.Scan(&comment.ID, &comment.ReminderID, &comment.Author,
			&comment.Message, &comment.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}
