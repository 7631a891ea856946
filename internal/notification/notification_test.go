package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/pharmapos/internal/config"
	"github.com/smallbiznis/pharmapos/internal/providers/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func sampleSummary() TransactionSummary {
	stock := 40
	return TransactionSummary{
		TransactionID:   "1790000000000000000",
		ReceiptNo:       "OR-01HXAMPLE",
		CashierName:     "Maria Santos",
		Subtotal:        decimal.RequireFromString("1500"),
		DiscountPercent: decimal.RequireFromString("10"),
		Discount:        decimal.RequireFromString("150"),
		VAT:             decimal.RequireFromString("144.64"),
		Total:           decimal.RequireFromString("1350"),
		Cash:            decimal.RequireFromString("2000"),
		Change:          decimal.RequireFromString("650"),
		CreatedAt:       time.Date(2024, 5, 1, 6, 5, 0, 0, time.UTC),
		Items: []SummaryItem{
			{Name: "Amoxicillin", Quantity: 3, Stock: &stock},
			{Name: "Gauze", Quantity: 1},
		},
	}
}

func TestFormatterLayout(t *testing.T) {
	text := Formatter{Symbol: "₱", Location: time.FixedZone("PHT", 8*60*60)}.Format(sampleSummary())

	assert.Contains(t, text, "*🧾 New Transaction Made!*\n")
	assert.Contains(t, text, "*Transaction ID:* #1790000000000000000\n")
	assert.Contains(t, text, "*Cashier:* Maria Santos\n")
	assert.Contains(t, text, "*Total:* ₱1,350.00\n")
	assert.Contains(t, text, "*VAT:* ₱144.64\n")
	assert.Contains(t, text, "*Discount:* ₱150.00 (10%)\n")
	assert.Contains(t, text, "*Change:* ₱650.00\n")
	assert.Contains(t, text, "*Time:* 2024-05-01 02:05 PM\n")
	assert.Contains(t, text, "- *Amoxicillin* (Qty: 3, New Stock: 40)")
	assert.Contains(t, text, "- *Gauze* (Qty: 1)")
}

func TestFormatterOmitsZeroDiscount(t *testing.T) {
	s := sampleSummary()
	s.Discount = decimal.Zero
	text := Formatter{Symbol: "₱"}.Format(s)
	assert.NotContains(t, text, "*Discount:*")
}

type fakeSink struct {
	mu    sync.Mutex
	calls []TransactionSummary
	err   error
	delay time.Duration
}

func (f *fakeSink) Name() string { return "fake" }

func (f *fakeSink) Notify(ctx context.Context, s TransactionSummary) error {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, s)
	return f.err
}

func TestDispatchDeliversOnceAfterCallerCancels(t *testing.T) {
	sink := &fakeSink{delay: 20 * time.Millisecond}
	d := NewDispatcher(sink, zap.NewNop(), nil, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	d.Dispatch(ctx, sampleSummary())
	cancel()

	require.NoError(t, d.Wait(context.Background()))
	assert.Len(t, sink.calls, 1)
}

func TestDispatchSwallowsFailures(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sink := &fakeSink{err: errors.New("webhook down")}
	d := NewDispatcher(sink, zap.New(core), nil, time.Second)

	d.Dispatch(context.Background(), sampleSummary())
	require.NoError(t, d.Wait(context.Background()))

	entries := logs.FilterMessage("notification failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
}

func TestSendTimesOut(t *testing.T) {
	sink := &fakeSink{delay: time.Second}
	d := NewDispatcher(sink, zap.NewNop(), nil, 10*time.Millisecond)

	err := d.Send(context.Background(), sampleSummary())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestUnconfiguredSlackLogsWarning(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sink := NewSlackSink(config.Config{}, &slack.NoOpProvider{}, config.NewStaticStoreConfigHolder(config.DefaultStoreConfig()))
	d := NewDispatcher(sink, zap.New(core), nil, time.Second)

	err := d.Send(context.Background(), sampleSummary())
	assert.ErrorIs(t, err, slack.ErrNotConfigured)
	assert.Equal(t, 1, logs.FilterMessage("notification dropped, sink not configured").Len())
}

type recordingProvider struct {
	channel string
	text    string
}

func (r *recordingProvider) PostMessage(ctx context.Context, channel, text string) error {
	r.channel, r.text = channel, text
	return nil
}

func TestSlackSinkUsesStoreSymbol(t *testing.T) {
	store := config.DefaultStoreConfig()
	store.CurrencySymbol = "PHP "
	store.Timezone = "UTC"

	rec := &recordingProvider{}
	cfg := config.Config{Slack: config.SlackConfig{Channel: "#pharmacy"}}
	sink := NewSlackSink(cfg, rec, config.NewStaticStoreConfigHolder(store))

	require.NoError(t, sink.Notify(context.Background(), sampleSummary()))
	assert.Equal(t, "#pharmacy", rec.channel)
	assert.Contains(t, rec.text, "*Total:* PHP 1,350.00")
}
