// Package pricing turns a cart into totals: subtotal, discount, VAT
// extracted from the VAT-inclusive total, and change due.
//
// Everything here is pure; callers may price a cart as often as they like
// before committing a checkout.
package pricing

import (
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

const (
	moneyPlaces = 2

	// MaxQuantity caps a single line. It keeps quantity sums and their
	// decimal products far from integer overflow.
	MaxQuantity = 100_000
)

var (
	ErrEmptyCart        = errors.New("empty_cart")
	ErrInvalidQuantity  = errors.New("invalid_quantity")
	ErrInvalidDiscount  = errors.New("invalid_discount")
	ErrInvalidUnitPrice = errors.New("invalid_unit_price")
	ErrInvalidVATRate   = errors.New("invalid_vat_rate")
	ErrInvalidCash      = errors.New("invalid_cash")
	ErrInsufficientCash = errors.New("insufficient_cash")
)

var hundred = decimal.NewFromInt(100)

// LineItem is one row of a submitted cart.
type LineItem struct {
	ProductID snowflake.ID
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// LineTotal is unit price times quantity.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

type Result struct {
	Subtotal        decimal.Decimal
	DiscountPercent decimal.Decimal
	DiscountAmount  decimal.Decimal
	DiscountedTotal decimal.Decimal
	VATRate         decimal.Decimal
	VATAmount       decimal.Decimal
	// GrandTotal is what the customer pays; prices already include VAT.
	GrandTotal decimal.Decimal
}

// Price computes totals for cart with the given discount percentage and
// VAT rate (0.12 for 12%).
func Price(cart []LineItem, discountPercent, vatRate decimal.Decimal) (Result, error) {
	if discountPercent.IsNegative() || discountPercent.GreaterThan(hundred) {
		return Result{}, ErrInvalidDiscount
	}
	if len(cart) == 0 {
		return Result{}, ErrEmptyCart
	}
	if vatRate.IsNegative() {
		return Result{}, ErrInvalidVATRate
	}

	subtotal := decimal.Zero
	for _, item := range cart {
		if item.Quantity <= 0 || item.Quantity > MaxQuantity {
			return Result{}, ErrInvalidQuantity
		}
		if item.UnitPrice.IsNegative() || !IsMoney(item.UnitPrice) {
			return Result{}, ErrInvalidUnitPrice
		}
		subtotal = subtotal.Add(item.LineTotal())
	}

	discountAmount := subtotal.Mul(discountPercent).Div(hundred).Round(moneyPlaces)
	discounted := subtotal.Sub(discountAmount)
	vat := discounted.Mul(vatRate).Div(decimal.NewFromInt(1).Add(vatRate)).Round(moneyPlaces)

	return Result{
		Subtotal:        subtotal,
		DiscountPercent: discountPercent,
		DiscountAmount:  discountAmount,
		DiscountedTotal: discounted,
		VATRate:         vatRate,
		VATAmount:       vat,
		GrandTotal:      discounted,
	}, nil
}

// Change returns cash minus the grand total, or ErrInsufficientCash when
// the tendered amount does not cover it. Cash must be a non-negative
// amount in whole centavos.
func (r Result) Change(cash decimal.Decimal) (decimal.Decimal, error) {
	if cash.IsNegative() || !IsMoney(cash) {
		return decimal.Zero, ErrInvalidCash
	}
	if cash.LessThan(r.GrandTotal) {
		return decimal.Zero, ErrInsufficientCash
	}
	return cash.Sub(r.GrandTotal), nil
}

// IsMoney reports whether d has no more than two decimal places, so it is
// stored in a numeric(12,2) column without rounding.
func IsMoney(d decimal.Decimal) bool {
	return d.Equal(d.Round(moneyPlaces))
}

// Units is the total item count across lines.
func Units(cart []LineItem) int64 {
	var n int64
	for _, item := range cart {
		n += int64(item.Quantity)
	}
	return n
}
