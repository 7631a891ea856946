package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

var (
	ErrEmptyIdempotencyKey = errors.New("empty_idempotency_key")
	ErrLockUnavailable     = errors.New("checkout_lock_unavailable")
)

// Deletes the key only while it still holds our token, so an expired lock
// re-taken by another till is left alone.
const releaseIfOwner = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// CheckoutLock is a SET NX lock keyed by idempotency key. It only narrows
// the window in which two tills race on the same key; the unique index on
// transactions.idempotency_key is what guarantees a single sale.
type CheckoutLock struct {
	client  *redis.Client
	release *redis.Script
	ttl     time.Duration
}

func NewCheckoutLock(client *redis.Client, ttl time.Duration) *CheckoutLock {
	if client == nil {
		return nil
	}
	return &CheckoutLock{
		client:  client,
		release: redis.NewScript(releaseIfOwner),
		ttl:     ttl,
	}
}

func checkoutLockKey(idempotencyKey string) string {
	return fmt.Sprintf(keyCheckoutLock, strings.TrimSpace(idempotencyKey))
}

// Acquire returns the owner token when the lock was taken and ok=false
// when another checkout holds it.
func (l *CheckoutLock) Acquire(ctx context.Context, idempotencyKey string) (token string, ok bool, err error) {
	if l == nil {
		return "", false, ErrLockUnavailable
	}
	if strings.TrimSpace(idempotencyKey) == "" {
		return "", false, ErrEmptyIdempotencyKey
	}

	token = uuid.NewString()
	ok, err = l.client.SetNX(ctx, checkoutLockKey(idempotencyKey), token, l.ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

func (l *CheckoutLock) Release(ctx context.Context, idempotencyKey, token string) error {
	if l == nil || token == "" {
		return nil
	}
	return l.release.Run(ctx, l.client, []string{checkoutLockKey(idempotencyKey)}, token).Err()
}
