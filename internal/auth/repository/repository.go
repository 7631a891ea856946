package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/pharmapos/internal/auth/domain"
	"gorm.io/gorm"
)

// New returns the user and session stores backed by db.
func New(db *gorm.DB) (domain.Repository, domain.SessionRepository) {
	return &userRepo{db: db}, &sessionRepo{db: db}
}

// first loads one row matching query, mapping a missing row to notFound.
func first[T any](ctx context.Context, db *gorm.DB, notFound error, query string, args ...any) (*T, error) {
	var out T
	err := db.WithContext(ctx).Where(query, args...).First(&out).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, notFound
	case err != nil:
		return nil, err
	}
	return &out, nil
}
