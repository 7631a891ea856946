package checkout

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/pharmapos/internal/clock"
	"github.com/smallbiznis/pharmapos/internal/config"
	"github.com/smallbiznis/pharmapos/internal/inventory"
	"github.com/smallbiznis/pharmapos/internal/notification"
	"github.com/smallbiznis/pharmapos/internal/pricing"
	productdomain "github.com/smallbiznis/pharmapos/internal/product/domain"
	productrepo "github.com/smallbiznis/pharmapos/internal/product/repository"
	txdomain "github.com/smallbiznis/pharmapos/internal/transaction/domain"
	txrepo "github.com/smallbiznis/pharmapos/internal/transaction/repository"
	"github.com/smallbiznis/pharmapos/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingSink struct {
	mu        sync.Mutex
	summaries []notification.TransactionSummary
	err       error
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Notify(ctx context.Context, summary notification.TransactionSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries = append(s.summaries, summary)
	return s.err
}

func (s *recordingSink) all() []notification.TransactionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notification.TransactionSummary(nil), s.summaries...)
}

type harness struct {
	db          *gorm.DB
	coordinator *Coordinator
	dispatcher  *notification.Dispatcher
	sink        *recordingSink
}

const cashierID snowflake.ID = 7

func newHarness(t *testing.T, stocks map[snowflake.ID]int) *harness {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&productdomain.Product{}, &txdomain.Transaction{}))
	require.NoError(t, conn.Exec(`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`).Error)
	require.NoError(t, conn.Exec(`INSERT INTO users (id, name) VALUES (?, 'Maria Santos')`, cashierID).Error)

	clk := clock.NewFakeClock(time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC))
	for id, stock := range stocks {
		require.NoError(t, conn.Create(&productdomain.Product{
			ID:        id,
			Code:      "p-" + id.String(),
			Name:      "Product " + id.String(),
			Stock:     stock,
			Price:     decimal.NewFromInt(100),
			CreatedAt: clk.Now(),
			UpdatedAt: clk.Now(),
		}).Error)
	}

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	products := productrepo.Provide()
	sink := &recordingSink{}
	dispatcher := notification.NewDispatcher(sink, zap.NewNop(), nil, time.Second)

	c := New(Params{
		DB:      conn,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   clk,
		Pricing: pricing.NewEngine(config.NewStaticStoreConfigHolder(config.DefaultStoreConfig())),
		Inventory: inventory.NewAdjuster(inventory.Params{
			Log:      zap.NewNop(),
			Clock:    clk,
			Products: products,
		}),
		Transactions: txrepo.Provide(),
		Products:     products,
		Dispatcher:   dispatcher,
	})

	return &harness{db: conn, coordinator: c, dispatcher: dispatcher, sink: sink}
}

func (h *harness) stock(t *testing.T, id snowflake.ID) int {
	t.Helper()
	var p productdomain.Product
	require.NoError(t, h.db.First(&p, "id = ?", id).Error)
	return p.Stock
}

func (h *harness) transactionCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.db.Model(&txdomain.Transaction{}).Count(&n).Error)
	return n
}

func (h *harness) wait(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.dispatcher.Wait(ctx))
}

func line(id snowflake.ID, price string, qty int) pricing.LineItem {
	return pricing.LineItem{
		ProductID: id,
		Name:      "Product " + id.String(),
		UnitPrice: decimal.RequireFromString(price),
		Quantity:  qty,
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCheckoutRecordsAndNotifies(t *testing.T) {
	h := newHarness(t, map[snowflake.ID]int{1: 10})

	res, err := h.coordinator.Checkout(context.Background(), Request{
		Items:           []pricing.LineItem{line(1, "100", 2)},
		DiscountPercent: dec("10"),
		CashTendered:    dec("200"),
		CashierID:       cashierID,
		CashierName:     "Maria Santos",
	})
	require.NoError(t, err)
	require.False(t, res.Replayed)

	tx := res.Transaction
	assert.Equal(t, "200.00", tx.Subtotal.StringFixed(2))
	assert.Equal(t, "20.00", tx.DiscountAmount.StringFixed(2))
	assert.Equal(t, "180.00", tx.Total.StringFixed(2))
	assert.Equal(t, "19.29", tx.VATAmount.StringFixed(2))
	assert.Equal(t, "20.00", tx.ChangeDue.StringFixed(2))
	assert.Equal(t, cashierID, tx.UserID)
	assert.Regexp(t, `^OR-[0-9A-Z]{26}$`, tx.ReceiptNo)

	assert.Equal(t, 8, h.stock(t, 1))
	assert.Equal(t, int64(1), h.transactionCount(t))

	h.wait(t)
	summaries := h.sink.all()
	require.Len(t, summaries, 1)
	assert.Equal(t, tx.ID.String(), summaries[0].TransactionID)
	assert.Equal(t, "Maria Santos", summaries[0].CashierName)
	require.Len(t, summaries[0].Items, 1)
	require.NotNil(t, summaries[0].Items[0].Stock)
	assert.Equal(t, 8, *summaries[0].Items[0].Stock)
}

func TestInsufficientCashLeavesStoreUntouched(t *testing.T) {
	h := newHarness(t, map[snowflake.ID]int{1: 10})

	_, err := h.coordinator.Checkout(context.Background(), Request{
		Items:        []pricing.LineItem{line(1, "100", 2)},
		CashTendered: dec("150"),
		CashierID:    cashierID,
	})
	assert.ErrorIs(t, err, pricing.ErrInsufficientCash)
	assert.Equal(t, 10, h.stock(t, 1))
	assert.Zero(t, h.transactionCount(t))

	h.wait(t)
	assert.Empty(t, h.sink.all())
}

func TestPricingErrorsAbortEarly(t *testing.T) {
	h := newHarness(t, map[snowflake.ID]int{1: 10})
	ctx := context.Background()

	_, err := h.coordinator.Checkout(ctx, Request{CashierID: cashierID, CashTendered: dec("1")})
	assert.ErrorIs(t, err, pricing.ErrEmptyCart)

	_, err = h.coordinator.Checkout(ctx, Request{
		Items:           []pricing.LineItem{line(1, "100", 1)},
		DiscountPercent: dec("101"),
		CashTendered:    dec("100"),
		CashierID:       cashierID,
	})
	assert.ErrorIs(t, err, pricing.ErrInvalidDiscount)

	_, err = h.coordinator.Checkout(ctx, Request{
		Items:        []pricing.LineItem{line(1, "100", 1)},
		CashTendered: dec("100"),
	})
	assert.ErrorIs(t, err, ErrInvalidCashier)

	assert.Equal(t, 10, h.stock(t, 1))
	assert.Zero(t, h.transactionCount(t))
}

func TestInsufficientStockRollsBackEveryLine(t *testing.T) {
	h := newHarness(t, map[snowflake.ID]int{1: 10, 2: 1})

	_, err := h.coordinator.Checkout(context.Background(), Request{
		Items:        []pricing.LineItem{line(1, "100", 3), line(2, "50", 2)},
		CashTendered: dec("1000"),
		CashierID:    cashierID,
	})
	var stockErr *inventory.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, snowflake.ID(2), stockErr.ProductID)
	assert.Equal(t, 1, stockErr.Available)
	assert.Equal(t, 2, stockErr.Requested)

	assert.Equal(t, 10, h.stock(t, 1))
	assert.Equal(t, 1, h.stock(t, 2))
	assert.Zero(t, h.transactionCount(t))
}

func TestUnknownProduct(t *testing.T) {
	h := newHarness(t, map[snowflake.ID]int{1: 10})

	_, err := h.coordinator.Checkout(context.Background(), Request{
		Items:        []pricing.LineItem{line(1, "100", 1), line(99, "5", 1)},
		CashTendered: dec("1000"),
		CashierID:    cashierID,
	})
	assert.ErrorIs(t, err, inventory.ErrProductNotFound)
	assert.Equal(t, 10, h.stock(t, 1))
}

func TestPersistenceFailureRestoresStock(t *testing.T) {
	h := newHarness(t, map[snowflake.ID]int{1: 10})
	require.NoError(t, h.db.Migrator().DropTable(&txdomain.Transaction{}))

	_, err := h.coordinator.Checkout(context.Background(), Request{
		Items:        []pricing.LineItem{line(1, "100", 4)},
		CashTendered: dec("400"),
		CashierID:    cashierID,
	})
	require.Error(t, err)
	assert.Equal(t, 10, h.stock(t, 1))

	h.wait(t)
	assert.Empty(t, h.sink.all())
}

func TestConcurrentCheckoutsNeverOversell(t *testing.T) {
	h := newHarness(t, map[snowflake.ID]int{1: 10})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.coordinator.Checkout(context.Background(), Request{
				Items:        []pricing.LineItem{line(1, "100", 6)},
				CashTendered: dec("600"),
				CashierID:    cashierID,
			})
		}(i)
	}
	wg.Wait()

	var succeeded, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, inventory.ErrInsufficientStock):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, 4, h.stock(t, 1))
	assert.Equal(t, int64(1), h.transactionCount(t))
}

func TestRecordedItemsAreFrozen(t *testing.T) {
	h := newHarness(t, map[snowflake.ID]int{1: 10})

	res, err := h.coordinator.Checkout(context.Background(), Request{
		Items:        []pricing.LineItem{line(1, "100", 1)},
		CashTendered: dec("100"),
		CashierID:    cashierID,
	})
	require.NoError(t, err)

	require.NoError(t, h.db.Model(&productdomain.Product{}).Where("id = ?", 1).
		Updates(map[string]any{"price": dec("250"), "name": "Renamed"}).Error)

	var stored txdomain.Transaction
	require.NoError(t, h.db.First(&stored, "id = ?", res.Transaction.ID).Error)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "100.00", stored.Items[0].Price.StringFixed(2))
	assert.Equal(t, "Product 1", stored.Items[0].Name)
	assert.Equal(t, 1, stored.Items[0].Quantity)
}

func TestNotificationFailureDoesNotFailCheckout(t *testing.T) {
	h := newHarness(t, map[snowflake.ID]int{1: 10})
	h.sink.err = errors.New("slack down")

	res, err := h.coordinator.Checkout(context.Background(), Request{
		Items:        []pricing.LineItem{line(1, "100", 1)},
		CashTendered: dec("100"),
		CashierID:    cashierID,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Transaction)

	h.wait(t)
	assert.Len(t, h.sink.all(), 1)
	assert.Equal(t, 9, h.stock(t, 1))
}

func TestIdempotentReplay(t *testing.T) {
	h := newHarness(t, map[snowflake.ID]int{1: 10})
	req := Request{
		Items:          []pricing.LineItem{line(1, "100", 2)},
		CashTendered:   dec("200"),
		CashierID:      cashierID,
		IdempotencyKey: "till-1-0001",
	}

	first, err := h.coordinator.Checkout(context.Background(), req)
	require.NoError(t, err)

	second, err := h.coordinator.Checkout(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Transaction.ID, second.Transaction.ID)

	assert.Equal(t, 8, h.stock(t, 1))
	assert.Equal(t, int64(1), h.transactionCount(t))

	h.wait(t)
	assert.Len(t, h.sink.all(), 1)
}

func TestRenotifyUsesCurrentStock(t *testing.T) {
	h := newHarness(t, map[snowflake.ID]int{1: 10})

	res, err := h.coordinator.Checkout(context.Background(), Request{
		Items:        []pricing.LineItem{line(1, "100", 1)},
		CashTendered: dec("100"),
		CashierID:    cashierID,
		CashierName:  "Maria Santos",
	})
	require.NoError(t, err)
	h.wait(t)

	require.NoError(t, h.db.Model(&productdomain.Product{}).Where("id = ?", 1).Update("stock", 3).Error)
	require.NoError(t, h.coordinator.Renotify(context.Background(), res.Transaction.ID.String()))

	summaries := h.sink.all()
	require.Len(t, summaries, 2)
	assert.Equal(t, "Maria Santos", summaries[1].CashierName)
	require.NotNil(t, summaries[1].Items[0].Stock)
	assert.Equal(t, 3, *summaries[1].Items[0].Stock)

	assert.ErrorIs(t, h.coordinator.Renotify(context.Background(), "12345"), ErrNotFound)
	assert.ErrorIs(t, h.coordinator.Renotify(context.Background(), "x"), txdomain.ErrInvalidID)
}

func TestPreview(t *testing.T) {
	h := newHarness(t, nil)

	res, err := h.coordinator.Preview([]pricing.LineItem{line(1, "105", 1)}, decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, "105.00", res.GrandTotal.StringFixed(2))
	assert.Equal(t, "11.25", res.VATAmount.StringFixed(2))
}

func TestOversizedQuantityLeavesStockUntouched(t *testing.T) {
	h := newHarness(t, map[snowflake.ID]int{1: 10})

	_, err := h.coordinator.Checkout(context.Background(), Request{
		Items:        []pricing.LineItem{line(1, "0", math.MaxInt), line(1, "0", math.MaxInt)},
		CashTendered: decimal.Zero,
		CashierID:    cashierID,
	})
	assert.ErrorIs(t, err, pricing.ErrInvalidQuantity)
	assert.Equal(t, 10, h.stock(t, 1))
	assert.Equal(t, int64(0), h.transactionCount(t))
}

func TestSubCentAmountsRejected(t *testing.T) {
	h := newHarness(t, map[snowflake.ID]int{1: 10})

	_, err := h.coordinator.Checkout(context.Background(), Request{
		Items:        []pricing.LineItem{line(1, "10.005", 1)},
		CashTendered: dec("10.01"),
		CashierID:    cashierID,
	})
	assert.ErrorIs(t, err, pricing.ErrInvalidUnitPrice)

	_, err = h.coordinator.Checkout(context.Background(), Request{
		Items:        []pricing.LineItem{line(1, "10.00", 1)},
		CashTendered: dec("10.006"),
		CashierID:    cashierID,
	})
	assert.ErrorIs(t, err, pricing.ErrInvalidCash)

	assert.Equal(t, 10, h.stock(t, 1))
	assert.Equal(t, int64(0), h.transactionCount(t))
}

func TestIdempotencyKeyBelongsToCashier(t *testing.T) {
	h := newHarness(t, map[snowflake.ID]int{1: 10})
	req := Request{
		Items:          []pricing.LineItem{line(1, "100", 2)},
		CashTendered:   dec("200"),
		CashierID:      cashierID,
		IdempotencyKey: "till-1-0002",
	}

	_, err := h.coordinator.Checkout(context.Background(), req)
	require.NoError(t, err)

	req.CashierID = cashierID + 1
	result, err := h.coordinator.Checkout(context.Background(), req)
	assert.ErrorIs(t, err, ErrIdempotencyKeyReused)
	assert.Nil(t, result)

	assert.Equal(t, 8, h.stock(t, 1))
	assert.Equal(t, int64(1), h.transactionCount(t))
}
