package inventory

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pharmapos/internal/clock"
	productdomain "github.com/smallbiznis/pharmapos/internal/product/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Item is a single requested decrement. The same product may appear more
// than once; quantities are summed before validation.
type Item struct {
	ProductID snowflake.ID
	Quantity  int
}

type Level struct {
	ProductID snowflake.ID
	Name      string
	Stock     int
}

// AdjustmentResult holds the post-decrement stock level per product, in
// product id order.
type AdjustmentResult struct {
	Levels []Level
}

func (r AdjustmentResult) StockOf(id snowflake.ID) (int, bool) {
	for _, l := range r.Levels {
		if l.ProductID == id {
			return l.Stock, true
		}
	}
	return 0, false
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Clock    clock.Clock
	Products productdomain.Repository
}

type Adjuster struct {
	log      *zap.Logger
	clock    clock.Clock
	products productdomain.Repository
}

func NewAdjuster(p Params) *Adjuster {
	return &Adjuster{
		log:      p.Log.Named("inventory.adjuster"),
		clock:    p.Clock,
		products: p.Products,
	}
}

// ReserveAndDecrement validates and applies every decrement inside tx.
// The caller owns tx; on any error nothing has been decremented that the
// caller's rollback would not undo.
func (a *Adjuster) ReserveAndDecrement(ctx context.Context, tx *gorm.DB, items []Item) (AdjustmentResult, error) {
	wanted, ids, err := aggregate(items)
	if err != nil {
		return AdjustmentResult{}, err
	}

	locked, err := a.products.LockByIDs(ctx, tx, ids)
	if err != nil {
		return AdjustmentResult{}, fmt.Errorf("lock products: %w", err)
	}

	byID := make(map[snowflake.ID]productdomain.Product, len(locked))
	for _, p := range locked {
		byID[p.ID] = p
	}

	// Validate the whole batch before the first write.
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return AdjustmentResult{}, &ProductNotFoundError{ProductID: id}
		}
		if p.Stock < wanted[id] {
			return AdjustmentResult{}, &InsufficientStockError{
				ProductID: id,
				Name:      p.Name,
				Available: p.Stock,
				Requested: wanted[id],
			}
		}
	}

	now := a.clock.Now()
	levels := make([]Level, 0, len(ids))
	for _, id := range ids {
		p := byID[id]
		qty := wanted[id]

		ok, err := a.products.DecrementStock(ctx, tx, id, qty, now)
		if err != nil {
			return AdjustmentResult{}, fmt.Errorf("decrement product %s: %w", id, err)
		}
		if !ok {
			// Another writer got in between the read and the update on a
			// dialect without row locks.
			current := p.Stock
			if fresh, ferr := a.products.FindByID(ctx, tx, id); ferr == nil && fresh != nil {
				current = fresh.Stock
			}
			return AdjustmentResult{}, &InsufficientStockError{
				ProductID: id,
				Name:      p.Name,
				Available: current,
				Requested: qty,
			}
		}
		levels = append(levels, Level{ProductID: id, Name: p.Name, Stock: p.Stock - qty})
	}

	a.log.Debug("stock decremented", zap.Int("products", len(levels)))
	return AdjustmentResult{Levels: levels}, nil
}

func aggregate(items []Item) (map[snowflake.ID]int, []snowflake.ID, error) {
	wanted := make(map[snowflake.ID]int, len(items))
	for _, item := range items {
		if item.Quantity <= 0 || wanted[item.ProductID] > math.MaxInt-item.Quantity {
			return nil, nil, ErrInvalidQuantity
		}
		wanted[item.ProductID] += item.Quantity
	}

	ids := make([]snowflake.ID, 0, len(wanted))
	for id := range wanted {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return wanted, ids, nil
}
