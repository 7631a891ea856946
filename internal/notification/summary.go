package notification

import (
	"time"

	"github.com/shopspring/decimal"
)

type SummaryItem struct {
	Name     string
	Quantity int
	// Stock is the level after the sale, nil when unknown.
	Stock *int
}

// TransactionSummary is what a sink needs to announce a committed sale.
type TransactionSummary struct {
	TransactionID   string
	ReceiptNo       string
	CashierName     string
	Subtotal        decimal.Decimal
	DiscountPercent decimal.Decimal
	Discount        decimal.Decimal
	VAT             decimal.Decimal
	Total           decimal.Decimal
	Cash            decimal.Decimal
	Change          decimal.Decimal
	CreatedAt       time.Time
	Items           []SummaryItem
}
