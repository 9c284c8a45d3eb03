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

type personRepository struct {
	db *sql.DB
}

func NewPersonRepository(db *sql.DB) repository.PersonRepository {
	return &personRepository{db: db}
}

func (r *personRepository) Create(ctx context.Context, person *models.Person) (*models.Person, error) {
	query := `INSERT INTO people (id, name, email, areas, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at`
	person.CreatedAt = time.Now()
	err := r.db.QueryRowContext(ctx, query,
		person.ID, person.Name, person.Email, pq.Array(person.Areas), person.CreatedAt,
	).Scan(&person.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create person: %w", err)
	}
	return person, nil
}

func (r *personRepository) List(ctx context.Context) ([]*models.Person, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email, areas, created_at FROM people ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query people: %w", err)
	}
	defer rows.Close()

	var people []*models.Person
	for rows.Next() {
		person := &models.Person{}
		if err := rows.Scan(&person.ID, &person.Name, &person.Email,
			pq.Array(&person.Areas), &person.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		people = append(people, person)
	}
	return people, rows.Err()
}

func (r *personRepository) GetByID(ctx context.Context, id string) (*models.Person, error) {
	person := &models.Person{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, areas, created_at FROM people WHERE id = $1`, id,
	).Scan(&person.ID, &person.Name, &person.Email, pq.Array(&person.Areas), &person.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get person: %w", err)
	}
	return person, nil
}

func (r *personRepository) Update(ctx context.Context, person *models.Person) (*models.Person, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE people SET name=$2, email=$3, areas=$4 WHERE id=$1`,
		person.ID, person.Name, person.Email, pq.Array(person.Areas))
	if err != nil {
		return nil, fmt.Errorf("failed to update person: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, repository.ErrNotFound
	}
	return person, nil
}

func (r *personRepository) Delete(ctx context.Context, id string) error {
	// The reminder_assignees foreign key blocks deleting a person that is
	// still referenced; the 23503 surfaces as a conflict to the caller.
	result, err := r.db.ExecContext(ctx, `DELETE FROM people WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete person: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
