package metrics

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the POS instruments. A nil *Metrics records nothing, so
// components take it as an optional dependency.
type Metrics struct {
	checkouts     metric.Int64Counter
	unitsSold     metric.Int64Counter
	salesAmount   metric.Float64Counter
	notifications metric.Int64Counter
	rateLimit     metric.Int64Counter
}

// New creates the instruments on provider's meter.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "pharmapos"
	}
	meter := provider.Meter(name)

	var errs []error
	int64Counter := func(name, desc, unit string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
		errs = append(errs, err)
		return c
	}

	m := &Metrics{
		checkouts:     int64Counter("pharmapos_checkouts_total", "Checkout attempts by outcome.", "{checkout}"),
		unitsSold:     int64Counter("pharmapos_units_sold_total", "Product units sold.", "{unit}"),
		notifications: int64Counter("pharmapos_notifications_total", "Sale notifications by sink and outcome.", "{notification}"),
		rateLimit:     int64Counter("pharmapos_rate_limit_decisions_total", "Rate limiter decisions.", "{decision}"),
	}
	salesAmount, err := meter.Float64Counter("pharmapos_sales_amount_total",
		metric.WithDescription("Grand total of committed sales in store currency."))
	errs = append(errs, err)
	m.salesAmount = salesAmount

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordCheckout counts a checkout attempt by outcome: "success",
// "replayed" or an error class such as "insufficient_stock".
func (m *Metrics) RecordCheckout(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.checkouts.Add(ctx, 1, withAttributes(attribute.String("outcome", outcome)))
}

// RecordSale adds the units and grand total of a committed checkout.
func (m *Metrics) RecordSale(ctx context.Context, units int64, total float64) {
	if m == nil {
		return
	}
	m.unitsSold.Add(ctx, units)
	m.salesAmount.Add(ctx, total)
}

func (m *Metrics) RecordNotification(ctx context.Context, sink, outcome string) {
	if m == nil {
		return
	}
	m.notifications.Add(ctx, 1, withAttributes(
		attribute.String("sink", sink),
		attribute.String("outcome", outcome),
	))
}

func (m *Metrics) RecordRateLimitAllowed(ctx context.Context, endpoint string) {
	if m == nil {
		return
	}
	m.rateLimit.Add(ctx, 1, withAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("outcome", "allowed"),
	))
}

func (m *Metrics) RecordRateLimitDenied(ctx context.Context, endpoint, reason string) {
	if m == nil {
		return
	}
	m.rateLimit.Add(ctx, 1, withAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("outcome", "denied"),
		attribute.String("reason", reason),
	))
}

func withAttributes(attrs ...attribute.KeyValue) metric.AddOption {
	return metric.WithAttributes(FilterAttributes(attrs...)...)
}

// Labels that stay low-cardinality. Ids, receipt numbers and emails never
// become metric labels.
var allowedLabelKeys = map[attribute.Key]bool{
	"endpoint":    true,
	"status_code": true,
	"outcome":     true,
	"sink":        true,
	"reason":      true,
}

// FilterAttributes drops labels outside allowedLabelKeys and trims values.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if !allowedLabelKeys[attr.Key] {
			continue
		}
		if attr.Value.Type() == attribute.STRING {
			attr = attr.Key.String(strings.TrimSpace(attr.Value.AsString()))
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
