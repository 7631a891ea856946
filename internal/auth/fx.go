package auth

import (
	"github.com/smallbiznis/pharmapos/internal/auth/repository"
	"github.com/smallbiznis/pharmapos/internal/auth/service"
	"github.com/smallbiznis/pharmapos/internal/auth/session"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
	session.Module,
)
