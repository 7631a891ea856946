package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("SLACK_WEBHOOK_URL", "")
	t.Setenv("NOTIFY_TIMEOUT", "")

	cfg := Load()
	assert.Equal(t, "pharmapos", cfg.AppName)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.False(t, cfg.Slack.Enabled())
	assert.Equal(t, 5*time.Second, cfg.Slack.Timeout)
	assert.False(t, cfg.AuthCookieSecure)
}

func TestLoadProductionForcesSecureCookie(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("AUTH_COOKIE_SECURE", "false")

	cfg := Load()
	assert.True(t, cfg.AuthCookieSecure)
	assert.True(t, cfg.IsProduction())
}

func TestLoadParsesSlackAndTimeouts(t *testing.T) {
	t.Setenv("SLACK_WEBHOOK_URL", " https://hooks.slack.test/abc ")
	t.Setenv("NOTIFY_TIMEOUT", "2s")
	t.Setenv("RATE_LIMIT_CHECKOUT_LOCK_TTL", "not-a-duration")

	cfg := Load()
	assert.True(t, cfg.Slack.Enabled())
	assert.Equal(t, "https://hooks.slack.test/abc", cfg.Slack.WebhookURL)
	assert.Equal(t, 2*time.Second, cfg.Slack.Timeout)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.CheckoutLockTTL)
}
