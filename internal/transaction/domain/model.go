// Package domain contains the persisted sale record.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// LineItem is the frozen copy of one cart line as it was submitted.
type LineItem struct {
	ProductID snowflake.ID    `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Transaction is written once per successful checkout and never updated.
type Transaction struct {
	ID              snowflake.ID                  `gorm:"primaryKey;autoIncrement:false"`
	ReceiptNo       string                        `gorm:"type:varchar(64);not null;uniqueIndex:ux_transactions_receipt_no"`
	IdempotencyKey  *string                       `gorm:"type:varchar(191);uniqueIndex:ux_transactions_idempotency_key"`
	UserID          snowflake.ID                  `gorm:"not null;index"`
	Subtotal        decimal.Decimal               `gorm:"type:numeric(12,2);not null"`
	DiscountPercent decimal.Decimal               `gorm:"type:numeric(5,2);not null"`
	DiscountAmount  decimal.Decimal               `gorm:"type:numeric(12,2);not null"`
	VATRate         decimal.Decimal               `gorm:"column:vat_rate;type:numeric(5,4);not null"`
	VATAmount       decimal.Decimal               `gorm:"column:vat_amount;type:numeric(12,2);not null"`
	Total           decimal.Decimal               `gorm:"type:numeric(12,2);not null"`
	CashTendered    decimal.Decimal               `gorm:"type:numeric(12,2);not null"`
	ChangeDue       decimal.Decimal               `gorm:"type:numeric(12,2);not null"`
	Items           datatypes.JSONSlice[LineItem] `gorm:"not null"`
	CreatedAt       time.Time                     `gorm:"not null;index"`
}

func (Transaction) TableName() string { return "transactions" }

// Units is the total quantity across all lines.
func (t *Transaction) Units() int64 {
	var n int64
	for _, item := range t.Items {
		n += int64(item.Quantity)
	}
	return n
}

// Row is a Transaction joined with its cashier's display name.
type Row struct {
	Transaction
	CashierName string
}

type Summary struct {
	Count int64
	Total decimal.Decimal
}
