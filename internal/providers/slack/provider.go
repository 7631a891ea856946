package slack

import (
	"context"
	"errors"
)

var ErrNotConfigured = errors.New("slack_not_configured")

type Provider interface {
	// PostMessage delivers text to channel. An empty channel uses the
	// webhook's default.
	PostMessage(ctx context.Context, channel string, text string) error
}

type NoOpProvider struct{}

func (p *NoOpProvider) PostMessage(ctx context.Context, channel string, text string) error {
	return ErrNotConfigured
}
