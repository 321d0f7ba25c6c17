// Package payments records fee payments and derives the payment history.
package payments

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/retreat-admin/backend/internal/models"
	"github.com/retreat-admin/backend/internal/notify"
	"github.com/retreat-admin/backend/internal/roster"
)

var (
	ErrInvalidAmount    = errors.New("amount must be greater than zero, below 10000000000 and have at most two decimal places")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrNotFound         = roster.ErrNotFound
	ErrRevisionConflict = roster.ErrRevisionConflict
)

// Receipt delivery outcomes reported with a payment.
const (
	ReceiptSent    = "sent"
	ReceiptFailed  = "failed"
	ReceiptSkipped = "skipped"
)

// Write is a single-entry payment update.
type Write struct {
	ParticipantID    uuid.UUID
	Amount           float64
	PaidAt           time.Time
	RecordedBy       string
	ExpectedRevision *int64
}

// Store applies a payment write atomically with its event row.
type Store interface {
	ApplyPayment(ctx context.Context, w Write) (*models.Participant, *models.PaymentEvent, error)
}

// ReceiptLog records receipt delivery attempts.
type ReceiptLog interface {
	Record(ctx context.Context, log *models.EmailLog) error
}

// Options tune a RecordPayment call.
type Options struct {
	RecordedBy       string
	ExpectedRevision *int64
}

// Result is the outcome of a successful payment.
type Result struct {
	Entry   *models.Participant  `json:"entry"`
	Event   *models.PaymentEvent `json:"event"`
	Receipt string               `json:"receipt"`
	Warning string               `json:"warning,omitempty"`
}

// Ledger applies payment state transitions to participants.
type Ledger struct {
	store      Store
	dispatcher notify.Dispatcher
	receipts   ReceiptLog
	now        func() time.Time
	logger     *zap.Logger
}

// NewLedger creates a payment ledger. receipts may be nil.
func NewLedger(store Store, dispatcher notify.Dispatcher, receipts ReceiptLog, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dispatcher == nil {
		dispatcher = notify.NopDispatcher{Logger: logger}
	}
	return &Ledger{store: store, dispatcher: dispatcher, receipts: receipts, now: time.Now, logger: logger}
}

// MaxAmount is the largest fee the NUMERIC(12, 2) payment columns can hold.
const MaxAmount = 9999999999.99

// ValidateAmount rejects amounts the store would round or refuse: non-finite, non-positive,
// above MaxAmount or with fractions of a cent.
func ValidateAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 || amount > MaxAmount {
		return ErrInvalidAmount
	}
	cents := amount * 100
	if math.Abs(cents-math.Round(cents)) > 1e-3 {
		return ErrInvalidAmount
	}
	return nil
}

// RecordPayment marks the participant paid with amount at the current time, then sends a receipt.
// The store write completes before anything else happens; a failed write leaves the entry untouched.
// Receipt problems never fail the payment and are reported as a warning.
func (l *Ledger) RecordPayment(ctx context.Context, participantID uuid.UUID, amount float64, opts Options) (*Result, error) {
	if err := ValidateAmount(amount); err != nil {
		l.logger.Warn("payment rejected", zap.String("participant_id", participantID.String()), zap.Float64("amount", amount), zap.Error(err))
		return nil, err
	}

	entry, event, err := l.store.ApplyPayment(ctx, Write{
		ParticipantID:    participantID,
		Amount:           amount,
		PaidAt:           l.now(),
		RecordedBy:       opts.RecordedBy,
		ExpectedRevision: opts.ExpectedRevision,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrRevisionConflict) || errors.Is(err, ErrInvalidAmount) {
			l.logger.Warn("payment not applied", zap.String("participant_id", participantID.String()), zap.Error(err))
			return nil, err
		}
		l.logger.Error("payment write failed",
			zap.String("event", "payment_ledger_failure"),
			zap.String("participant_id", participantID.String()),
			zap.Float64("amount", amount),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %s", ErrStoreUnavailable, err.Error())
	}

	l.logger.Info("payment recorded",
		zap.String("participant_id", entry.ID.String()),
		zap.String("code", entry.DisplayCode()),
		zap.Float64("amount", amount),
		zap.String("recorded_by", opts.RecordedBy))

	res := &Result{Entry: entry, Event: event}
	res.Receipt, res.Warning = l.sendReceipt(ctx, entry)
	return res, nil
}

// ReceiptFor builds the receipt for a paid participant.
func ReceiptFor(p *models.Participant) notify.Receipt {
	r := notify.Receipt{
		ToEmail:   strings.TrimSpace(p.Email),
		ToName:    p.DisplayName(),
		Amount:    p.PaidAmount(),
		ReceiptID: p.DisplayCode(),
	}
	if p.FeePaidAt != nil {
		r.Date = *p.FeePaidAt
	}
	return r
}

func (l *Ledger) sendReceipt(ctx context.Context, entry *models.Participant) (status, warning string) {
	receipt := ReceiptFor(entry)
	log := &models.EmailLog{
		ParticipantID:  entry.ID,
		EmailType:      models.EmailTypePaymentReceipt,
		RecipientEmail: receipt.ToEmail,
		RecipientName:  receipt.ToName,
		ReceiptID:      receipt.ReceiptID,
		Amount:         receipt.Amount,
	}
	defer l.recordReceipt(ctx, log)

	if receipt.ToEmail == "" {
		log.Status = models.EmailLogStatusSkipped
		return ReceiptSkipped, ""
	}
	log.Attempts = 1
	if err := l.dispatcher.SendPaymentReceipt(ctx, receipt); err != nil {
		l.logger.Warn("receipt dispatch failed",
			zap.String("event", "notification_failure"),
			zap.String("participant_id", entry.ID.String()),
			zap.Error(err))
		log.Status = models.EmailLogStatusFailed
		log.ErrorMessage = err.Error()
		return ReceiptFailed, "payment recorded but the receipt email could not be sent: " + err.Error()
	}
	now := l.now()
	log.Status = models.EmailLogStatusSent
	log.SentAt = &now
	return ReceiptSent, ""
}

func (l *Ledger) recordReceipt(ctx context.Context, log *models.EmailLog) {
	if l.receipts == nil {
		return
	}
	if err := l.receipts.Record(ctx, log); err != nil {
		l.logger.Warn("record receipt log failed", zap.String("participant_id", log.ParticipantID.String()), zap.Error(err))
	}
}
