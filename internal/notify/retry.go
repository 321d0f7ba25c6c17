package notify

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// RetryingDispatcher retries a Dispatcher with exponential backoff up to MaxAttempts sends.
type RetryingDispatcher struct {
	next           Dispatcher
	maxAttempts    int
	initialBackoff time.Duration
	logger         *zap.Logger
}

// NewRetryingDispatcher wraps next. maxAttempts below 1 means a single attempt.
func NewRetryingDispatcher(next Dispatcher, maxAttempts int, initialBackoff time.Duration, logger *zap.Logger) *RetryingDispatcher {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if initialBackoff <= 0 {
		initialBackoff = 500 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryingDispatcher{next: next, maxAttempts: maxAttempts, initialBackoff: initialBackoff, logger: logger}
}

// SendPaymentReceipt implements Dispatcher.
func (d *RetryingDispatcher) SendPaymentReceipt(ctx context.Context, r Receipt) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = d.initialBackoff
	exp.MaxInterval = 8 * d.initialBackoff
	exp.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(d.maxAttempts-1)), ctx)

	attempt := 0
	op := func() error {
		attempt++
		err := d.next.SendPaymentReceipt(ctx, r)
		if err == nil {
			return nil
		}
		var se *StatusError
		if errors.As(err, &se) && !se.Temporary() {
			return backoff.Permanent(err)
		}
		d.logger.Warn("receipt send attempt failed",
			zap.Int("attempt", attempt), zap.String("receipt_id", r.ReceiptID), zap.Error(err))
		return err
	}
	if err := backoff.Retry(op, policy); err != nil {
		if errors.Is(err, ErrNotificationFailure) {
			return err
		}
		return failure("%v", err)
	}
	return nil
}
