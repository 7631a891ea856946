package pricing

import (
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/pharmapos/internal/config"
)

// Engine prices carts with the store's current VAT rate, so a reloaded
// pos.yml applies to the next checkout without a restart.
type Engine struct {
	store *config.StoreConfigHolder
}

func NewEngine(store *config.StoreConfigHolder) *Engine {
	return &Engine{store: store}
}

func (e *Engine) VATRate() decimal.Decimal {
	return e.store.Get().VAT()
}

func (e *Engine) Price(cart []LineItem, discountPercent decimal.Decimal) (Result, error) {
	return Price(cart, discountPercent, e.VATRate())
}
