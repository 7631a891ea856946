// Package context carries request-scoped correlation values used by logs,
// traces and metrics.
package context

import (
	"context"
	"strings"
)

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	actorTypeKey ctxKey = "actor_type"
	actorIDKey   ctxKey = "actor_id"
	actorRoleKey ctxKey = "actor_role"
)

// GinKeyReceiptNo is the gin.Context key a handler sets once a sale has a
// receipt number, so request logs and spans can carry it.
const GinKeyReceiptNo = "receipt_no"

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, strings.TrimSpace(requestID))
}

func RequestIDFromContext(ctx context.Context) string {
	return stringValue(ctx, requestIDKey)
}

// WithActor records the authenticated caller.
func WithActor(ctx context.Context, actorType, actorID, role string) context.Context {
	ctx = context.WithValue(ctx, actorTypeKey, strings.TrimSpace(actorType))
	ctx = context.WithValue(ctx, actorIDKey, strings.TrimSpace(actorID))
	return context.WithValue(ctx, actorRoleKey, strings.TrimSpace(role))
}

func ActorFromContext(ctx context.Context) (string, string) {
	return stringValue(ctx, actorTypeKey), stringValue(ctx, actorIDKey)
}

func ActorRoleFromContext(ctx context.Context) string {
	return stringValue(ctx, actorRoleKey)
}

func stringValue(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(key).(string)
	return value
}
