package inventory

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/pharmapos/internal/clock"
	productdomain "github.com/smallbiznis/pharmapos/internal/product/domain"
	productrepo "github.com/smallbiznis/pharmapos/internal/product/repository"
	"github.com/smallbiznis/pharmapos/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setup(t *testing.T, stocks map[snowflake.ID]int) (*gorm.DB, *Adjuster) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&productdomain.Product{}))

	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	for id, stock := range stocks {
		require.NoError(t, conn.Create(&productdomain.Product{
			ID:        id,
			Code:      "p-" + id.String(),
			Name:      "Product " + id.String(),
			Stock:     stock,
			Price:     decimal.NewFromInt(10),
			CreatedAt: now,
			UpdatedAt: now,
		}).Error)
	}

	adj := NewAdjuster(Params{
		Log:      zap.NewNop(),
		Clock:    clock.NewFakeClock(now),
		Products: productrepo.Provide(),
	})
	return conn, adj
}

func stockOf(t *testing.T, conn *gorm.DB, id snowflake.ID) int {
	t.Helper()
	var p productdomain.Product
	require.NoError(t, conn.First(&p, "id = ?", id).Error)
	return p.Stock
}

func TestReserveAndDecrementSuccess(t *testing.T) {
	conn, adj := setup(t, map[snowflake.ID]int{1: 10, 2: 4})

	var result AdjustmentResult
	err := conn.Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = adj.ReserveAndDecrement(context.Background(), tx, []Item{
			{ProductID: 2, Quantity: 1},
			{ProductID: 1, Quantity: 3},
			{ProductID: 2, Quantity: 2},
		})
		return err
	})
	require.NoError(t, err)

	require.Len(t, result.Levels, 2)
	assert.Equal(t, snowflake.ID(1), result.Levels[0].ProductID)
	level, ok := result.StockOf(2)
	require.True(t, ok)
	assert.Equal(t, 1, level)

	assert.Equal(t, 7, stockOf(t, conn, 1))
	assert.Equal(t, 1, stockOf(t, conn, 2))
}

func TestReserveAndDecrementIsAllOrNothing(t *testing.T) {
	conn, adj := setup(t, map[snowflake.ID]int{1: 10, 2: 2})

	err := conn.Transaction(func(tx *gorm.DB) error {
		_, err := adj.ReserveAndDecrement(context.Background(), tx, []Item{
			{ProductID: 1, Quantity: 5},
			{ProductID: 2, Quantity: 3},
		})
		return err
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientStock))

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, snowflake.ID(2), stockErr.ProductID)
	assert.Equal(t, 2, stockErr.Available)
	assert.Equal(t, 3, stockErr.Requested)

	assert.Equal(t, 10, stockOf(t, conn, 1))
	assert.Equal(t, 2, stockOf(t, conn, 2))
}

func TestReserveAndDecrementSumsDuplicateLines(t *testing.T) {
	conn, adj := setup(t, map[snowflake.ID]int{1: 5})

	err := conn.Transaction(func(tx *gorm.DB) error {
		_, err := adj.ReserveAndDecrement(context.Background(), tx, []Item{
			{ProductID: 1, Quantity: 3},
			{ProductID: 1, Quantity: 3},
		})
		return err
	})
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 6, stockErr.Requested)
	assert.Equal(t, 5, stockOf(t, conn, 1))
}

func TestReserveAndDecrementUnknownProduct(t *testing.T) {
	conn, adj := setup(t, map[snowflake.ID]int{1: 5})

	err := conn.Transaction(func(tx *gorm.DB) error {
		_, err := adj.ReserveAndDecrement(context.Background(), tx, []Item{
			{ProductID: 1, Quantity: 1},
			{ProductID: 42, Quantity: 1},
		})
		return err
	})
	assert.ErrorIs(t, err, ErrProductNotFound)

	var nf *ProductNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, snowflake.ID(42), nf.ProductID)
	assert.Equal(t, 5, stockOf(t, conn, 1))
}

func TestReserveAndDecrementExactStock(t *testing.T) {
	conn, adj := setup(t, map[snowflake.ID]int{1: 3})

	err := conn.Transaction(func(tx *gorm.DB) error {
		_, err := adj.ReserveAndDecrement(context.Background(), tx, []Item{{ProductID: 1, Quantity: 3}})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 0, stockOf(t, conn, 1))
}

func TestReserveAndDecrementRejectsBadQuantity(t *testing.T) {
	conn, adj := setup(t, map[snowflake.ID]int{1: 3})

	_, err := adj.ReserveAndDecrement(context.Background(), conn, []Item{{ProductID: 1, Quantity: 0}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestReserveAndDecrementRejectsQuantityOverflow(t *testing.T) {
	conn, adj := setup(t, map[snowflake.ID]int{1: 10})

	err := conn.Transaction(func(tx *gorm.DB) error {
		_, err := adj.ReserveAndDecrement(context.Background(), tx, []Item{
			{ProductID: 1, Quantity: math.MaxInt},
			{ProductID: 1, Quantity: math.MaxInt},
		})
		return err
	})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Equal(t, 10, stockOf(t, conn, 1))
}
