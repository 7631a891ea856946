package inventory

import "go.uber.org/fx"

var Module = fx.Module("inventory.adjuster",
	fx.Provide(NewAdjuster),
)
