package feedback

import (
	"github.com/smallbiznis/pharmapos/internal/feedback/repository"
	"github.com/smallbiznis/pharmapos/internal/feedback/service"
	"go.uber.org/fx"
)

var Module = fx.Module("feedback.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
