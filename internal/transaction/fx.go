package transaction

import (
	"github.com/smallbiznis/pharmapos/internal/transaction/repository"
	"github.com/smallbiznis/pharmapos/internal/transaction/service"
	"go.uber.org/fx"
)

var Module = fx.Module("transaction.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
