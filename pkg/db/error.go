package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// Unique-violation text per driver, for errors that reach us untranslated
// (raw SQL, migrations, or a dialector without TranslateError support).
var uniqueViolationText = []string{
	"duplicate key value violates unique constraint", // postgres
	"Error 1062",               // mysql
	"UNIQUE constraint failed", // sqlite
}

// IsDuplicateKeyErr reports whether err is a unique-index violation.
// Callers treat it as "someone else already wrote this row": a taken
// product code, an existing email, or a replayed idempotency key.
func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	msg := err.Error()
	for _, text := range uniqueViolationText {
		if strings.Contains(msg, text) {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err is gorm's missing-row error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
