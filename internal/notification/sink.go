package notification

import (
	"context"

	"github.com/smallbiznis/pharmapos/internal/config"
	"github.com/smallbiznis/pharmapos/internal/providers/slack"
)

// Sink delivers a sale summary to an external channel.
type Sink interface {
	Name() string
	Notify(ctx context.Context, summary TransactionSummary) error
}

type SlackSink struct {
	provider slack.Provider
	channel  string
	store    *config.StoreConfigHolder
}

func NewSlackSink(cfg config.Config, provider slack.Provider, store *config.StoreConfigHolder) *SlackSink {
	return &SlackSink{
		provider: provider,
		channel:  cfg.Slack.Channel,
		store:    store,
	}
}

func (s *SlackSink) Name() string { return "slack" }

func (s *SlackSink) Notify(ctx context.Context, summary TransactionSummary) error {
	storeCfg := s.store.Get()
	text := Formatter{Symbol: storeCfg.CurrencySymbol, Location: storeCfg.Location()}.Format(summary)
	return s.provider.PostMessage(ctx, s.channel, text)
}
