package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, feedback *Feedback) error
	// List returns the latest entries first, at most limit rows.
	List(ctx context.Context, db *gorm.DB, limit int) ([]Row, error)
}
