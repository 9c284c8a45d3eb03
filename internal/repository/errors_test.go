package repository_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/javiortega/roomboard/internal/repository"
)

func pgErr(code, constraint string) error {
	return &pq.Error{Code: pq.ErrorCode(code), Constraint: constraint}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want repository.Kind
	}{
		{"nil", nil, repository.KindGeneric},
		{"not found sentinel", repository.ErrNotFound, repository.KindNotFound},
		{"no rows", sql.ErrNoRows, repository.KindNotFound},
		{"code taken", repository.ErrCodeTaken, repository.KindConflict},
		{"undefined column", pgErr("42703", ""), repository.KindSchema},
		{"undefined table", pgErr("42P01", ""), repository.KindSchema},
		{"insufficient privilege", pgErr("42501", ""), repository.KindPermission},
		{"unique violation", pgErr("23505", ""), repository.KindConflict},
		{"foreign key", pgErr("23503", ""), repository.KindConflict},
		{"anything else", errors.New("boom"), repository.KindGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, repository.Classify(tt.err))
		})
	}
}

func TestClassifyWrapped(t *testing.T) {
	wrapped := fmt.Errorf("failed to get room: %w", repository.ErrNotFound)
	assert.Equal(t, repository.KindNotFound, repository.Classify(wrapped))

	wrappedPQ := fmt.Errorf("failed to create room: %w", pgErr("42501", ""))
	assert.Equal(t, repository.KindPermission, repository.Classify(wrappedPQ))
}

func TestDescribeIsStable(t *testing.T) {
	assert.Equal(t, "database schema is out of date, run the migrations",
		repository.Describe(repository.KindSchema))
	assert.Equal(t, "something went wrong, try again",
		repository.Describe(repository.KindGeneric))
}

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", pgErr("23505", "rooms_code_key"))

	assert.True(t, repository.IsUniqueViolation(err, "rooms_code_key"))
	assert.True(t, repository.IsUniqueViolation(err, ""), "empty constraint matches any")
	assert.False(t, repository.IsUniqueViolation(err, "users_email_key"))
	assert.False(t, repository.IsUniqueViolation(pgErr("23503", "rooms_code_key"), "rooms_code_key"))
	assert.False(t, repository.IsUniqueViolation(errors.New("boom"), ""))
}
