package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/pharmapos/internal/config"
	"github.com/smallbiznis/pharmapos/internal/observability/metrics"
	"go.uber.org/zap"
)

const (
	keyLogin        = "pharmapos:login:%s"
	keyCheckoutLock = "pharmapos:checkout:lock:%s"

	endpointLogin = "login"
)

// Limiter guards login attempts and serializes checkouts that share an
// idempotency key. Redis backs it when configured; otherwise login limits
// are kept per process and checkout locks are skipped.
type Limiter struct {
	client *redis.Client
	bucket *TokenBucket
	lock   *CheckoutLock
	memory *MemoryBucket

	loginRate  float64
	loginBurst int
	lockTTL    time.Duration

	log     *zap.Logger
	metrics *metrics.Metrics
}

func New(cfg config.Config, log *zap.Logger, m *metrics.Metrics) *Limiter {
	limitCfg := cfg.RateLimit
	if log == nil {
		log = zap.NewNop()
	}

	l := &Limiter{
		memory:     NewMemoryBucket(),
		loginRate:  limitCfg.LoginRate,
		loginBurst: limitCfg.LoginBurst,
		lockTTL:    limitCfg.CheckoutLockTTL,
		log:        log.Named("ratelimit"),
		metrics:    m,
	}
	if l.loginRate <= 0 {
		l.loginRate = 0.2
	}
	if l.loginBurst <= 0 {
		l.loginBurst = 5
	}
	if l.lockTTL <= 0 {
		l.lockTTL = 30 * time.Second
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if limitCfg.Enabled && addr != "" {
		l.client = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: strings.TrimSpace(limitCfg.RedisPassword),
			DB:       limitCfg.RedisDB,
		})
		l.bucket = NewTokenBucket(l.client)
		l.lock = NewCheckoutLock(l.client, l.lockTTL)
	}
	return l
}

func (l *Limiter) Distributed() bool {
	return l != nil && l.client != nil
}

// AllowLogin consumes one login attempt for key (client ip + email). Redis
// errors fall back to the in-process bucket rather than locking users out.
func (l *Limiter) AllowLogin(ctx context.Context, key string) *RateLimitResult {
	if l == nil {
		return &RateLimitResult{Allowed: true}
	}
	key = strings.ToLower(strings.TrimSpace(key))

	var res *RateLimitResult
	if l.Distributed() {
		var err error
		res, err = l.bucket.Allow(ctx, fmt.Sprintf(keyLogin, key), l.loginRate, l.loginBurst)
		if err != nil {
			l.log.Warn("redis rate limit failed, using local bucket", zap.Error(err))
			res = nil
		}
	}
	if res == nil {
		res = l.memory.Allow(key, l.loginRate, l.loginBurst)
	}

	if res.Allowed {
		l.metrics.RecordRateLimitAllowed(ctx, endpointLogin)
	} else {
		l.metrics.RecordRateLimitDenied(ctx, endpointLogin, "login_attempts")
	}
	return res
}

// TryLockCheckout takes a short lock on an idempotency key. Without redis
// it always succeeds with an empty token.
func (l *Limiter) TryLockCheckout(ctx context.Context, idempotencyKey string) (string, bool, error) {
	if !l.Distributed() {
		return "", true, nil
	}
	return l.lock.Acquire(ctx, idempotencyKey)
}

func (l *Limiter) ReleaseCheckout(ctx context.Context, idempotencyKey, token string) error {
	if !l.Distributed() {
		return nil
	}
	return l.lock.Release(ctx, idempotencyKey, token)
}

func (l *Limiter) Close() error {
	if !l.Distributed() {
		return nil
	}
	return l.client.Close()
}
