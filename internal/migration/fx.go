package migration

import (
	"context"

	authdomain "github.com/smallbiznis/pharmapos/internal/auth/domain"
	"github.com/smallbiznis/pharmapos/internal/config"
	"github.com/smallbiznis/pharmapos/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(Run),
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Cfg   config.Config
	Log   *zap.Logger
	Users authdomain.Repository
	Auth  authdomain.Service
}

// Run migrates the schema and seeds the bootstrap admin.
func Run(p Params) error {
	log := p.Log.Named("migration")
	if err := Apply(p.DB); err != nil {
		return err
	}
	log.Info("schema up to date", zap.String("dialect", p.DB.Dialector.Name()))

	_, err := seed.EnsureAdmin(context.Background(), log, p.Users, p.Auth, p.Cfg.Bootstrap)
	return err
}
