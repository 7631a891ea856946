package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/smallbiznis/pharmapos/internal/observability/metrics"
	"github.com/smallbiznis/pharmapos/internal/providers/slack"
	"go.uber.org/zap"
)

const defaultTimeout = 5 * time.Second

// Dispatcher hands summaries to a Sink off the request path. Failures are
// logged and counted, never returned to the checkout caller.
type Dispatcher struct {
	sink    Sink
	log     *zap.Logger
	metrics *metrics.Metrics
	timeout time.Duration

	wg sync.WaitGroup
}

func NewDispatcher(sink Sink, log *zap.Logger, m *metrics.Metrics, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Dispatcher{
		sink:    sink,
		log:     log.Named("notification.dispatcher"),
		metrics: m,
		timeout: timeout,
	}
}

// Dispatch sends summary exactly once in the background. ctx only
// contributes values; its cancellation does not stop delivery.
func (d *Dispatcher) Dispatch(ctx context.Context, summary TransactionSummary) {
	detached := context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		_ = d.Send(detached, summary)
	}()
}

// Send delivers synchronously within the dispatcher timeout.
func (d *Dispatcher) Send(ctx context.Context, summary TransactionSummary) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	err := d.sink.Notify(ctx, summary)
	switch {
	case err == nil:
		d.metrics.RecordNotification(ctx, d.sink.Name(), "sent")
		d.log.Debug("notification sent",
			zap.String("sink", d.sink.Name()),
			zap.String("transaction_id", summary.TransactionID),
		)
	case errors.Is(err, slack.ErrNotConfigured):
		d.metrics.RecordNotification(ctx, d.sink.Name(), "dropped")
		d.log.Warn("notification dropped, sink not configured",
			zap.String("sink", d.sink.Name()),
			zap.String("transaction_id", summary.TransactionID),
		)
	default:
		d.metrics.RecordNotification(ctx, d.sink.Name(), "failed")
		d.log.Error("notification failed",
			zap.String("sink", d.sink.Name()),
			zap.String("transaction_id", summary.TransactionID),
			zap.Error(err),
		)
	}
	return err
}

// Wait blocks until in-flight dispatches finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
