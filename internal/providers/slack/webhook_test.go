package slack

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPostMessageSendsText(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewWebhook(Config{WebhookURL: srv.URL, Timeout: time.Second}, zap.NewNop())
	require.NoError(t, p.PostMessage(context.Background(), "#sales", "hello"))

	assert.Equal(t, "hello", got.Text)
	assert.Equal(t, "#sales", got.Channel)
}

func TestPostMessageReportsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	p := NewWebhook(Config{WebhookURL: srv.URL}, zap.NewNop())
	err := p.PostMessage(context.Background(), "", "hello")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Equal(t, "invalid_payload", statusErr.Body)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewWebhook(Config{WebhookURL: srv.URL}, zap.NewNop())
	for i := 0; i < 5; i++ {
		require.Error(t, p.PostMessage(context.Background(), "", "x"))
	}

	err := p.PostMessage(context.Background(), "", "x")
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, int32(5), calls.Load())
}

func TestUnconfigured(t *testing.T) {
	p := NewWebhook(Config{}, nil)
	assert.ErrorIs(t, p.PostMessage(context.Background(), "", "x"), ErrNotConfigured)
	assert.ErrorIs(t, (&NoOpProvider{}).PostMessage(context.Background(), "", "x"), ErrNotConfigured)
}
