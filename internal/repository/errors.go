// Package repository holds the GORM stores for users, goals and goal libraries.
// Errors leave this package already mapped onto models.AppError.
package repository

import (
	"errors"
	"strings"

	"devhabit/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const sqlStateUniqueViolation = "23505"

// entityErrors holds the client messages for one table. An empty message
// leaves that failure as an internal error.
type entityErrors struct {
	notFound  string
	duplicate string
}

var (
	userErrors    = entityErrors{notFound: "User not found", duplicate: "User already exists"}
	goalErrors    = entityErrors{notFound: "Goal not found"}
	libraryErrors = entityErrors{duplicate: "Library already exists for this goal"}
)

func (e entityErrors) wrap(err error) error {
	switch {
	case err == nil:
		return nil
	case e.notFound != "" && errors.Is(err, gorm.ErrRecordNotFound):
		return models.NewNotFoundError(e.notFound)
	case e.duplicate != "" && isDuplicate(err):
		return models.NewValidationError(e.duplicate)
	default:
		return models.NewInternalError(err)
	}
}

func (e entityErrors) missing() error {
	return models.NewNotFoundError(e.notFound)
}

// isDuplicate reports a unique index violation from Postgres or SQLite.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == sqlStateUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
