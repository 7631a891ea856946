package checkout

import (
	"github.com/smallbiznis/pharmapos/internal/inventory"
	"github.com/smallbiznis/pharmapos/internal/pricing"
	"go.uber.org/fx"
)

var Module = fx.Module("checkout.coordinator",
	inventory.Module,
	fx.Provide(pricing.NewEngine),
	fx.Provide(New),
)
