package repository

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrCodeTaken is returned when a room insert hits the unique
	// constraint on the code column.
	ErrCodeTaken = errors.New("room code already taken")
)

// Kind is the human-facing category of a store error. Callers classify
// failures only to pick a message; nothing is retried automatically.
type Kind int

const (
	KindGeneric Kind = iota
	KindSchema
	KindPermission
	KindNotFound
	KindConflict
)

// Postgres error codes the classifier cares about.
const (
	pgUndefinedColumn  = "42703"
	pgUndefinedTable   = "42P01"
	pgInsufficientPriv = "42501"
	pgUniqueViolation  = "23505"
	pgForeignKey       = "23503"
)

// Classify maps a store error onto its Kind.
func Classify(err error) Kind {
	if err == nil {
		return KindGeneric
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, sql.ErrNoRows) {
		return KindNotFound
	}
	if errors.Is(err, ErrCodeTaken) {
		return KindConflict
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgUndefinedColumn, pgUndefinedTable:
			return KindSchema
		case pgInsufficientPriv:
			return KindPermission
		case pgUniqueViolation, pgForeignKey:
			return KindConflict
		}
	}
	return KindGeneric
}

// Describe returns the stable human-readable category for a Kind.
func Describe(k Kind) string {
	switch k {
	case KindSchema:
		return "database schema is out of date, run the migrations"
	case KindPermission:
		return "the database rejected the operation, check its policies"
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "the record conflicts with existing data"
	default:
		return "something went wrong, try again"
	}
}

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// failure, optionally on a specific constraint name.
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || string(pqErr.Code) != pgUniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
