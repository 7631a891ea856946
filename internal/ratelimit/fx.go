package ratelimit

import (
	"context"

	"github.com/smallbiznis/pharmapos/internal/config"
	"github.com/smallbiznis/pharmapos/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("rate.limit",
	fx.Provide(provide),
)

func provide(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, m *metrics.Metrics) *Limiter {
	l := New(cfg, log, m)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if l.Distributed() {
				if err := l.client.Ping(ctx).Err(); err != nil {
					l.log.Warn("redis unreachable, login limits fall back to local buckets", zap.Error(err))
				}
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return l.Close()
		},
	})
	return l
}
