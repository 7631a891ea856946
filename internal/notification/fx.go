package notification

import (
	"context"

	"github.com/smallbiznis/pharmapos/internal/config"
	"github.com/smallbiznis/pharmapos/internal/observability/metrics"
	"github.com/smallbiznis/pharmapos/internal/providers/slack"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("notification",
	slack.Module,
	fx.Provide(
		fx.Annotate(NewSlackSink, fx.As(new(Sink))),
	),
	fx.Provide(provideDispatcher),
)

func provideDispatcher(lc fx.Lifecycle, cfg config.Config, sink Sink, log *zap.Logger, m *metrics.Metrics) *Dispatcher {
	d := NewDispatcher(sink, log, m, cfg.Slack.Timeout)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return d.Wait(ctx)
		},
	})
	return d
}
