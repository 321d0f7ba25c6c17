// Package notify delivers payment receipts through a transactional mail relay.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// ErrNotificationFailure wraps every delivery error. Callers treat it as non-fatal.
var ErrNotificationFailure = errors.New("notification failure")

// Receipt is the payload of a payment confirmation email.
type Receipt struct {
	ToEmail   string
	ToName    string
	Amount    float64
	ReceiptID string
	Date      time.Time
}

// AmountText formats the amount without trailing zeros (100, 150.5).
func (r Receipt) AmountText() string {
	return strconv.FormatFloat(r.Amount, 'f', -1, 64)
}

// DateText formats the payment date for the receipt template.
func (r Receipt) DateText() string {
	return r.Date.Format("02 Jan 2006, 15:04")
}

// Dispatcher sends payment receipts.
type Dispatcher interface {
	SendPaymentReceipt(ctx context.Context, r Receipt) error
}

// NopDispatcher logs receipts instead of sending them. Used when no relay is configured.
type NopDispatcher struct {
	Logger *zap.Logger
}

// SendPaymentReceipt implements Dispatcher.
func (d NopDispatcher) SendPaymentReceipt(ctx context.Context, r Receipt) error {
	if d.Logger != nil {
		d.Logger.Info("receipt relay not configured, skipping send",
			zap.String("to", r.ToEmail), zap.String("receipt_id", r.ReceiptID))
	}
	return nil
}

func failure(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotificationFailure, fmt.Sprintf(format, args...))
}
