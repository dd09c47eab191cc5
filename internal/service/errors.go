package service

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrUnauthenticated      = errors.New("not authenticated")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrForbidden            = errors.New("access denied")
	ErrInvalidAdminPassword = errors.New("invalid admin password")
)

// ValidationError carries a message that is safe to show to the user.
// Conflict marks uniqueness violations.
type ValidationError struct {
	Message  string
	Conflict bool
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

func conflict(msg string) error {
	return &ValidationError{Message: msg, Conflict: true}
}

// NotFoundError names the missing entity and matches ErrNotFound.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found"
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func notFound(entity string) error {
	return &NotFoundError{Entity: entity}
}

// isDuplicateKey recognises unique violations from gorm's translator, pgx and sqlite.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
