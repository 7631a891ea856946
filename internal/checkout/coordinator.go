package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/pharmapos/internal/clock"
	"github.com/smallbiznis/pharmapos/internal/inventory"
	"github.com/smallbiznis/pharmapos/internal/notification"
	"github.com/smallbiznis/pharmapos/internal/observability/metrics"
	"github.com/smallbiznis/pharmapos/internal/pricing"
	productdomain "github.com/smallbiznis/pharmapos/internal/product/domain"
	"github.com/smallbiznis/pharmapos/internal/ratelimit"
	txdomain "github.com/smallbiznis/pharmapos/internal/transaction/domain"
	"github.com/smallbiznis/pharmapos/pkg/db"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Request is a submitted cart. CashierID is the authenticated user and is
// never taken from the request body.
type Request struct {
	Items           []pricing.LineItem
	DiscountPercent decimal.Decimal
	CashTendered    decimal.Decimal
	CashierID       snowflake.ID
	CashierName     string
	IdempotencyKey  string
}

type Result struct {
	Transaction *txdomain.Transaction
	// Replayed is set when an earlier checkout with the same idempotency
	// key was returned instead of recording a new one.
	Replayed bool
}

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Pricing      *pricing.Engine
	Inventory    *inventory.Adjuster
	Transactions txdomain.Repository
	Products     productdomain.Repository
	Dispatcher   *notification.Dispatcher
	Limiter      *ratelimit.Limiter `optional:"true"`
	Metrics      *metrics.Metrics   `optional:"true"`
}

// Coordinator drives a cart through Priced, StockValidated, Recorded and
// Notified. Stock and the transaction row are written in one database
// transaction.
type Coordinator struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	pricing      *pricing.Engine
	inventory    *inventory.Adjuster
	transactions txdomain.Repository
	products     productdomain.Repository
	dispatcher   *notification.Dispatcher
	limiter      *ratelimit.Limiter
	metrics      *metrics.Metrics
	tracer       trace.Tracer
}

func New(p Params) *Coordinator {
	return &Coordinator{
		db:           p.DB,
		log:          p.Log.Named("checkout.coordinator"),
		genID:        p.GenID,
		clock:        p.Clock,
		pricing:      p.Pricing,
		inventory:    p.Inventory,
		transactions: p.Transactions,
		products:     p.Products,
		dispatcher:   p.Dispatcher,
		limiter:      p.Limiter,
		metrics:      p.Metrics,
		tracer:       otel.Tracer("pharmapos/checkout"),
	}
}

// Preview prices a cart without touching the store.
func (c *Coordinator) Preview(items []pricing.LineItem, discountPercent decimal.Decimal) (pricing.Result, error) {
	return c.pricing.Price(items, discountPercent)
}

func (c *Coordinator) Checkout(ctx context.Context, req Request) (result *Result, err error) {
	ctx, span := c.tracer.Start(ctx, "checkout")
	defer func() {
		outcome := outcomeOf(err)
		if err == nil && result != nil && result.Replayed {
			outcome = "replayed"
		}
		c.metrics.RecordCheckout(ctx, outcome)
		span.SetAttributes(attribute.String("checkout.outcome", outcome))
		if err != nil && outcome == "error" {
			span.RecordError(err)
			span.SetStatus(codes.Error, "checkout failed")
		}
		span.End()
	}()

	if req.CashierID == 0 {
		return nil, ErrInvalidCashier
	}
	for _, item := range req.Items {
		if item.ProductID == 0 {
			return nil, ErrInvalidProduct
		}
	}

	priced, err := c.pricing.Price(req.Items, req.DiscountPercent)
	if err != nil {
		return nil, err
	}
	change, err := priced.Change(req.CashTendered)
	if err != nil {
		return nil, err
	}

	key := strings.TrimSpace(req.IdempotencyKey)
	if key != "" {
		span.SetAttributes(attribute.Bool("checkout.idempotent", true))

		token, ok, lockErr := c.limiter.TryLockCheckout(ctx, key)
		if lockErr != nil {
			c.log.Warn("checkout lock unavailable", zap.Error(lockErr))
		} else if !ok {
			return nil, ErrCheckoutInProgress
		} else {
			defer func() {
				if relErr := c.limiter.ReleaseCheckout(context.WithoutCancel(ctx), key, token); relErr != nil {
					c.log.Warn("release checkout lock", zap.Error(relErr))
				}
			}()
		}

		existing, err := c.transactions.FindByIdempotencyKey(ctx, c.db, key)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return replay(existing, req.CashierID)
		}
	}

	now := c.clock.Now()
	record := &txdomain.Transaction{
		ID:              c.genID.Generate(),
		ReceiptNo:       "OR-" + ulid.Make().String(),
		UserID:          req.CashierID,
		Subtotal:        priced.Subtotal,
		DiscountPercent: priced.DiscountPercent,
		DiscountAmount:  priced.DiscountAmount,
		VATRate:         priced.VATRate,
		VATAmount:       priced.VATAmount,
		Total:           priced.GrandTotal,
		CashTendered:    req.CashTendered,
		ChangeDue:       change,
		Items:           datatypes.NewJSONSlice(freeze(req.Items)),
		CreatedAt:       now,
	}
	if key != "" {
		record.IdempotencyKey = &key
	}

	var levels inventory.AdjustmentResult
	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		adjusted, err := c.inventory.ReserveAndDecrement(ctx, tx, toInventory(req.Items))
		if err != nil {
			return err
		}
		levels = adjusted

		if err := c.transactions.Create(ctx, tx, record); err != nil {
			return fmt.Errorf("record transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		if key != "" && db.IsDuplicateKeyErr(err) {
			// Lost the race to a concurrent request with the same key.
			existing, findErr := c.transactions.FindByIdempotencyKey(ctx, c.db, key)
			if findErr == nil && existing != nil {
				return replay(existing, req.CashierID)
			}
		}
		c.logFailure(err, req)
		return nil, err
	}

	c.log.Info("checkout recorded",
		zap.String("transaction_id", record.ID.String()),
		zap.String("receipt_no", record.ReceiptNo),
		zap.String("cashier_id", req.CashierID.String()),
		zap.String("total", record.Total.StringFixed(2)),
		zap.Int("lines", len(record.Items)),
	)
	c.metrics.RecordSale(ctx, record.Units(), record.Total.InexactFloat64())
	span.SetAttributes(attribute.String("transaction.id", record.ID.String()))

	c.dispatcher.Dispatch(ctx, buildSummary(record, req.CashierName, levels))
	return &Result{Transaction: record}, nil
}

// replay returns an earlier checkout for the same key. Keys are only
// replayable by the cashier who recorded the sale.
func replay(existing *txdomain.Transaction, cashierID snowflake.ID) (*Result, error) {
	if existing.UserID != cashierID {
		return nil, ErrIdempotencyKeyReused
	}
	return &Result{Transaction: existing, Replayed: true}, nil
}

// Renotify re-sends the summary for a recorded transaction, reporting
// current stock levels.
func (c *Coordinator) Renotify(ctx context.Context, id string) error {
	txID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || txID == 0 {
		return txdomain.ErrInvalidID
	}

	row, err := c.transactions.FindByID(ctx, c.db, txID)
	if err != nil {
		return err
	}
	if row == nil {
		return ErrNotFound
	}

	ids := make([]snowflake.ID, 0, len(row.Items))
	for _, item := range row.Items {
		ids = append(ids, item.ProductID)
	}
	current, err := c.products.FindByIDs(ctx, c.db, ids)
	if err != nil {
		return err
	}
	levels := inventory.AdjustmentResult{Levels: make([]inventory.Level, 0, len(current))}
	for _, p := range current {
		levels.Levels = append(levels.Levels, inventory.Level{ProductID: p.ID, Name: p.Name, Stock: p.Stock})
	}

	return c.dispatcher.Send(ctx, buildSummary(&row.Transaction, row.CashierName, levels))
}

func (c *Coordinator) logFailure(err error, req Request) {
	fields := []zap.Field{
		zap.String("cashier_id", req.CashierID.String()),
		zap.Int("lines", len(req.Items)),
		zap.Error(err),
	}
	var stockErr *inventory.InsufficientStockError
	if errors.As(err, &stockErr) {
		fields = append(fields,
			zap.String("product_id", stockErr.ProductID.String()),
			zap.Int("available", stockErr.Available),
			zap.Int("requested", stockErr.Requested),
		)
		c.log.Info("checkout rejected", fields...)
		return
	}
	if errors.Is(err, inventory.ErrProductNotFound) {
		c.log.Info("checkout rejected", fields...)
		return
	}
	c.log.Error("checkout failed", fields...)
}

func freeze(items []pricing.LineItem) []txdomain.LineItem {
	out := make([]txdomain.LineItem, 0, len(items))
	for _, item := range items {
		out = append(out, txdomain.LineItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal(),
		})
	}
	return out
}

func toInventory(items []pricing.LineItem) []inventory.Item {
	out := make([]inventory.Item, 0, len(items))
	for _, item := range items {
		out = append(out, inventory.Item{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return out
}

func buildSummary(t *txdomain.Transaction, cashierName string, levels inventory.AdjustmentResult) notification.TransactionSummary {
	items := make([]notification.SummaryItem, 0, len(t.Items))
	for _, item := range t.Items {
		summaryItem := notification.SummaryItem{Name: item.Name, Quantity: item.Quantity}
		if stock, ok := levels.StockOf(item.ProductID); ok {
			summaryItem.Stock = &stock
		}
		items = append(items, summaryItem)
	}

	return notification.TransactionSummary{
		TransactionID:   t.ID.String(),
		ReceiptNo:       t.ReceiptNo,
		CashierName:     cashierName,
		Subtotal:        t.Subtotal,
		DiscountPercent: t.DiscountPercent,
		Discount:        t.DiscountAmount,
		VAT:             t.VATAmount,
		Total:           t.Total,
		Cash:            t.CashTendered,
		Change:          t.ChangeDue,
		CreatedAt:       t.CreatedAt,
		Items:           items,
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, pricing.ErrInsufficientCash):
		return "insufficient_cash"
	case errors.Is(err, inventory.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, inventory.ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, ErrCheckoutInProgress):
		return "in_progress"
	case errors.Is(err, ErrIdempotencyKeyReused):
		return "key_reused"
	case isPricingValidation(err), errors.Is(err, ErrInvalidCashier), errors.Is(err, ErrInvalidProduct):
		return "invalid"
	default:
		return "error"
	}
}

func isPricingValidation(err error) bool {
	switch {
	case errors.Is(err, pricing.ErrEmptyCart),
		errors.Is(err, pricing.ErrInvalidQuantity),
		errors.Is(err, pricing.ErrInvalidDiscount),
		errors.Is(err, pricing.ErrInvalidUnitPrice),
		errors.Is(err, pricing.ErrInvalidVATRate),
		errors.Is(err, pricing.ErrInvalidCash):
		return true
	}
	return false
}
