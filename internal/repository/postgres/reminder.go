package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/javiortega/roomboard/internal/models"
	"github.com/javiortega/roomboard/internal/repository"
)

type reminderRepository struct {
	db *sql.DB
}

func NewReminderRepository(db *sql.DB) repository.ReminderRepository {
	return &reminderRepository{db: db}
}

func (r *reminderRepository) Create(ctx context.Context, reminder *models.Reminder) (*models.Reminder, error) {
	query := `INSERT INTO reminders (id, room_code, title, description, due_date, priority, progress, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`
	now := time.Now()
	reminder.CreatedAt = now
	reminder.UpdatedAt = now
	if reminder.Priority == "" {
		reminder.Priority = models.PriorityMedium
	}
	reminder.Progress = models.ClampProgress(reminder.Progress)
	err := r.db.QueryRowContext(ctx, query,
		reminder.ID, reminder.RoomCode, reminder.Title, reminder.Description,
		reminder.DueDate, reminder.Priority, reminder.Progress,
		reminder.CreatedAt, reminder.UpdatedAt,
	).Scan(&reminder.CreatedAt, &reminder.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}
	if len(reminder.Assignees) > 0 {
		if err := r.SetAssignees(ctx, reminder.ID, reminder.Assignees); err != nil {
			return nil, err
		}
	}
	return reminder, nil
}

func (r *reminderRepository) GetByID(ctx context.Context, id string) (*models.Reminder, error) {
	query := `SELECT id, room_code, title, description, due_date, priority, progress, created_at, updated_at
		FROM reminders WHERE id = $1`
	reminder := &models.Reminder{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&reminder.ID, &reminder.RoomCode, &reminder.Title, &reminder.Description,
		&reminder.DueDate, &reminder.Priority, &reminder.Progress,
		&reminder.CreatedAt, &reminder.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}
	if err := r.loadAssignees(ctx, []*models.Reminder{reminder}); err != nil {
		return nil, err
	}
	if err := r.loadTags(ctx, []*models.Reminder{reminder}); err != nil {
		return nil, err
	}
	return reminder, nil
}

func (r *reminderRepository) ListByRoom(ctx context.Context, roomCode string) ([]*models.Reminder, error) {
	query := `SELECT id, room_code, title, description, due_date, priority, progress, created_at, updated_at
		FROM reminders WHERE room_code = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, roomCode)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders: %w", err)
	}
	defer rows.Close()

	var reminders []*models.Reminder
	for rows.Next() {
		reminder := &models.Reminder{}
		if err := rows.Scan(
			&reminder.ID, &reminder.RoomCode, &reminder.Title, &reminder.Description,
			&reminder.DueDate, &reminder.Priority, &reminder.Progress,
			&reminder.CreatedAt, &reminder.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		if reminder.Priority == "" {
			reminder.Priority = models.PriorityMedium
		}
		reminders = append(reminders, reminder)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadAssignees(ctx, reminders); err != nil {
		return nil, err
	}
	if err := r.loadTags(ctx, reminders); err != nil {
		return nil, err
	}
	return reminders, nil
}

func (r *reminderRepository) Update(ctx context.Context, reminder *models.Reminder) (*models.Reminder, error) {
	query := `UPDATE reminders SET title=$2, description=$3, due_date=$4, priority=$5, updated_at=$6
		WHERE id=$1 RETURNING updated_at`
	reminder.UpdatedAt = time.Now()
	err := r.db.QueryRowContext(ctx, query,
		reminder.ID, reminder.Title, reminder.Description,
		reminder.DueDate, reminder.Priority, reminder.UpdatedAt,
	).Scan(&reminder.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update reminder: %w", err)
	}
	return reminder, nil
}

func (r *reminderRepository) UpdateProgress(ctx context.Context, id string, progress int) (time.Time, error) {
	var updatedAt time.Time
	err := r.db.QueryRowContext(ctx,
		`UPDATE reminders SET progress=$2, updated_at=$3 WHERE id=$1 RETURNING updated_at`,
		id, progress, time.Now(),
	).Scan(&updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, repository.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("failed to update progress: %w", err)
	}
	return updatedAt, nil
}

func (r *reminderRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *reminderRepository) DeleteByRoom(ctx context.Context, roomCode string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM reminders WHERE room_code = $1`, roomCode); err != nil {
		return fmt.Errorf("failed to clear reminders: %w", err)
	}
	return nil
}

func (r *reminderRepository) BulkInsert(ctx context.Context, reminders []*models.Reminder) error {
	if len(reminders) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin bulk insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO reminders (id, room_code, title, description, due_date, priority, progress, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`)
	if err != nil {
		return fmt.Errorf("failed to prepare bulk insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, reminder := range reminders {
		if reminder.Priority == "" {
			reminder.Priority = models.PriorityMedium
		}
		reminder.CreatedAt = now
		reminder.UpdatedAt = now
		if _, err := stmt.ExecContext(ctx,
			reminder.ID, reminder.RoomCode, reminder.Title, reminder.Description,
			reminder.DueDate, reminder.Priority, models.ClampProgress(reminder.Progress),
			reminder.CreatedAt, reminder.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert reminder %q: %w", reminder.Title, err)
		}
	}
	return tx.Commit()
}

func (r *reminderRepository) SetAssignees(ctx context.Context, reminderID string, personIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin assignee update: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM reminder_assignees WHERE reminder_id = $1`, reminderID); err != nil {
		return fmt.Errorf("failed to clear assignees: %w", err)
	}
	for pos, personID := range personIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO reminder_assignees (reminder_id, person_id, position) VALUES ($1, $2, $3)`,
			reminderID, personID, pos); err != nil {
			return fmt.Errorf("failed to add assignee: %w", err)
		}
	}
	return tx.Commit()
}

// loadAssignees attaches ordered person ids to every reminder in one query.
func (r *reminderRepository) loadAssignees(ctx context.Context, reminders []*models.Reminder) error {
	if len(reminders) == 0 {
		return nil
	}
	ids := make([]string, len(reminders))
	byID := make(map[string]*models.Reminder, len(reminders))
	for i, reminder := range reminders {
		ids[i] = reminder.ID
		byID[reminder.ID] = reminder
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT reminder_id, person_id FROM reminder_assignees
		WHERE reminder_id = ANY($1) ORDER BY position`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to query assignees: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var reminderID, personID string
		if err := rows.Scan(&reminderID, &personID); err != nil {
			return fmt.Errorf("failed to scan assignee: %w", err)
		}
		if reminder, ok := byID[reminderID]; ok {
			reminder.Assignees = append(reminder.Assignees, personID)
		}
	}
	return rows.Err()
}

// loadTags attaches tags to every reminder in one query.
func (r *reminderRepository) loadTags(ctx context.Context, reminders []*models.Reminder) error {
	if len(reminders) == 0 {
		return nil
	}
	ids := make([]string, len(reminders))
	byID := make(map[string]*models.Reminder, len(reminders))
	for i, reminder := range reminders {
		ids[i] = reminder.ID
		byID[reminder.ID] = reminder
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.reminder_id, t.id, t.room_code, t.name, t.color, t.created_at
		FROM reminder_tag_assignments a
		JOIN reminder_tags t ON t.id = a.tag_id
		WHERE a.reminder_id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to query reminder tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var reminderID string
		var tag models.Tag
		if err := rows.Scan(&reminderID, &tag.ID, &tag.RoomCode, &tag.Name, &tag.Color, &tag.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan reminder tag: %w", err)
		}
		if reminder, ok := byID[reminderID]; ok {
			reminder.Tags = append(reminder.Tags, tag)
		}
	}
	return rows.Err()
}
