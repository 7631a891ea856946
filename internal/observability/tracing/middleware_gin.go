package tracing

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/pharmapos/internal/observability/context"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

var untraced = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// GinMiddleware opens a server span per request. Probe routes are skipped.
// The span is renamed to the matched route once the handler has run.
func GinMiddleware() gin.HandlerFunc {
	tracer := otel.Tracer("pharmapos/http")
	return func(c *gin.Context) {
		if untraced[c.Request.URL.Path] {
			c.Next()
			return
		}

		ctx := ExtractContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, c.Request.Method, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
			ctx = withRequestIDBaggage(ctx, requestID)
			span.SetAttributes(attribute.String("request_id", requestID))
		}

		c.Request = c.Request.WithContext(ctx)
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		span.SetName(c.Request.Method + " " + route)

		attrs := []attribute.KeyValue{
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
			attribute.Int64("http.server_duration_ms", time.Since(start).Milliseconds()),
		}
		if receipt := c.GetString(obscontext.GinKeyReceiptNo); receipt != "" {
			attrs = append(attrs, attribute.String("pos.receipt_no", receipt))
		}
		if c.GetHeader("Idempotency-Key") != "" {
			attrs = append(attrs, attribute.Bool("pos.idempotency_key", true))
		}
		span.SetAttributes(SafeAttributes(attrs...)...)

		reqCtx := c.Request.Context()
		if _, actorID := obscontext.ActorFromContext(reqCtx); actorID != "" {
			span.SetAttributes(
				attribute.String("enduser.id", actorID),
				attribute.String("enduser.role", obscontext.ActorRoleFromContext(reqCtx)),
			)
		}

		if status < http.StatusInternalServerError {
			return
		}
		if lastErr := c.Errors.Last(); lastErr != nil {
			if safeErr := SafeError(lastErr.Err); safeErr != nil {
				span.RecordError(safeErr)
			}
		}
		span.SetStatus(codes.Error, http.StatusText(status))
	}
}

func withRequestIDBaggage(ctx context.Context, requestID string) context.Context {
	member, err := baggage.NewMember("request_id", requestID)
	if err != nil {
		return ctx
	}
	bag, err := baggage.FromContext(ctx).SetMember(member)
	if err != nil {
		return ctx
	}
	return baggage.ContextWithBaggage(ctx, bag)
}
