package slack

import (
	"github.com/smallbiznis/pharmapos/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.slack",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, log *zap.Logger) Provider {
	if !cfg.Slack.Enabled() {
		return &NoOpProvider{}
	}
	return NewWebhook(Config{
		WebhookURL: cfg.Slack.WebhookURL,
		Timeout:    cfg.Slack.Timeout,
	}, log.Named("providers.slack"))
}
