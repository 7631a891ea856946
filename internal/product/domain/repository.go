package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, product *Product) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Product, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]Product, error)
	List(ctx context.Context, db *gorm.DB, filter ListRequest) ([]Product, error)
	ListLowStock(ctx context.Context, db *gorm.DB, threshold int) ([]Product, error)
	Update(ctx context.Context, db *gorm.DB, product *Product) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)

	// LockByIDs loads the given products for update inside db's
	// transaction, ordered by id so concurrent checkouts lock in the same
	// order.
	LockByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]Product, error)
	// DecrementStock subtracts qty only if at least qty units remain and
	// reports whether the row was changed.
	DecrementStock(ctx context.Context, db *gorm.DB, id snowflake.ID, qty int, at time.Time) (bool, error)
}
