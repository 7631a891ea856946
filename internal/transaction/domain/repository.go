package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pharmapos/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListFilter struct {
	From   *time.Time
	To     *time.Time
	Cursor *pagination.Cursor
	Limit  int
}

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, tx *Transaction) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Row, error)
	FindByIdempotencyKey(ctx context.Context, db *gorm.DB, key string) (*Transaction, error)
	// List returns rows newest first. It fetches at most filter.Limit rows.
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Row, error)
	// Summarize aggregates transactions created in [from, to).
	Summarize(ctx context.Context, db *gorm.DB, from, to time.Time) (Summary, error)
}
