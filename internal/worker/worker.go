// Package worker runs background receipt delivery.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/retreat-admin/backend/internal/models"
	"github.com/retreat-admin/backend/internal/notify"
	"github.com/retreat-admin/backend/internal/payments"
	"github.com/retreat-admin/backend/pkg/queue"
)

// JobQueue is the job source the processor drains.
type JobQueue interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// ParticipantGetter loads the participant a receipt is for.
type ParticipantGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Participant, error)
}

// LogStore tracks receipt delivery.
type LogStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.EmailLog, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status, errMsg string, sentAt *time.Time) error
}

// ReceiptProcessor sends queued payment receipts and records the outcome on the email log.
type ReceiptProcessor struct {
	participants ParticipantGetter
	logs         LogStore
	dispatcher   notify.Dispatcher
	queue        JobQueue
	backoff      time.Duration
	now          func() time.Time
	logger       *zap.Logger
}

// NewReceiptProcessor creates a receipt processor.
func NewReceiptProcessor(participants ParticipantGetter, logs LogStore, dispatcher notify.Dispatcher, q JobQueue, logger *zap.Logger) *ReceiptProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReceiptProcessor{
		participants: participants,
		logs:         logs,
		dispatcher:   dispatcher,
		queue:        q,
		backoff:      queue.RetryBackoff,
		now:          time.Now,
		logger:       logger,
	}
}

// Process executes one receipt job. Jobs whose log is already sent are acknowledged without sending.
func (p *ReceiptProcessor) Process(ctx context.Context, job *queue.Job) error {
	payload, err := job.DecodeReceipt()
	if err != nil {
		return err
	}
	el, err := p.logs.GetByID(ctx, payload.LogID)
	if err != nil {
		return fmt.Errorf("load email log %s: %w", payload.LogID, err)
	}
	if el.Status == models.EmailLogStatusSent {
		p.logger.Info("receipt already sent", zap.String("log_id", el.ID.String()))
		return nil
	}
	entry, err := p.participants.GetByID(ctx, payload.ParticipantID)
	if err != nil {
		return fmt.Errorf("load participant %s: %w", payload.ParticipantID, err)
	}

	receipt := payments.ReceiptFor(entry)
	if !entry.IsPaid() || strings.TrimSpace(receipt.ToEmail) == "" {
		return p.logs.UpdateStatus(ctx, el.ID, models.EmailLogStatusSkipped, "participant has no payment or email", nil)
	}
	if err := p.dispatcher.SendPaymentReceipt(ctx, receipt); err != nil {
		if uerr := p.logs.UpdateStatus(ctx, el.ID, models.EmailLogStatusFailed, err.Error(), nil); uerr != nil {
			p.logger.Warn("update email log failed", zap.String("log_id", el.ID.String()), zap.Error(uerr))
		}
		return fmt.Errorf("send receipt: %w", err)
	}
	sentAt := p.now()
	if err := p.logs.UpdateStatus(ctx, el.ID, models.EmailLogStatusSent, "", &sentAt); err != nil {
		p.logger.Error("update email log failed", zap.String("log_id", el.ID.String()), zap.Error(err))
	}
	p.logger.Info("receipt sent",
		zap.String("log_id", el.ID.String()),
		zap.String("participant_id", entry.ID.String()),
		zap.String("requested_by", payload.RequestedBy))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *ReceiptProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("receipt worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *ReceiptProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
