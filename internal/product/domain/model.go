package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID        snowflake.ID    `gorm:"primaryKey;autoIncrement:false"`
	Code      string          `gorm:"type:varchar(191);not null;uniqueIndex:ux_products_code"`
	Name      string          `gorm:"type:varchar(255);not null"`
	Stock     int             `gorm:"not null;default:0"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	CreatedAt time.Time       `gorm:"not null"`
	UpdatedAt time.Time       `gorm:"not null"`
}

func (Product) TableName() string { return "products" }
