package emaillogs

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/retreat-admin/backend/internal/middleware"
	"github.com/retreat-admin/backend/internal/models"
	"github.com/retreat-admin/backend/internal/roster"
	"github.com/retreat-admin/backend/pkg/queue"
	"github.com/retreat-admin/backend/pkg/response"
)

// Store is the email log persistence used by the handler.
type Store interface {
	Record(ctx context.Context, el *models.EmailLog) error
	ListByParticipant(ctx context.Context, participantID uuid.UUID) ([]models.EmailLog, error)
}

// ParticipantGetter loads the participant a receipt belongs to.
type ParticipantGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Participant, error)
}

// Enqueuer hands receipt jobs to the worker.
type Enqueuer interface {
	EnqueueReceipt(ctx context.Context, payload queue.ReceiptPayload) error
}

// Handler handles email log HTTP endpoints.
type Handler struct {
	store        Store
	participants ParticipantGetter
	jobs         Enqueuer
	logger       *zap.Logger
}

// NewHandler creates an email logs handler. jobs may be nil when no worker queue is configured.
func NewHandler(store Store, participants ParticipantGetter, jobs Enqueuer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, participants: participants, jobs: jobs, logger: logger}
}

// ListByParticipant handles GET /participants/:id/emails.
func (h *Handler) ListByParticipant(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid participant id")
		return
	}
	logs, err := h.store.ListByParticipant(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("list email logs failed", zap.String("participant_id", id.String()), zap.Error(err))
		response.ServiceUnavailable(c, "failed to load email logs")
		return
	}
	response.OK(c, logs)
}

// Resend handles POST /participants/:id/emails/resend. A pending log row is written and the send
// is handed to the worker.
func (h *Handler) Resend(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid participant id")
		return
	}
	if h.jobs == nil {
		response.ServiceUnavailable(c, "receipt worker is not configured")
		return
	}
	ctx := c.Request.Context()
	p, err := h.participants.GetByID(ctx, id)
	if errors.Is(err, roster.ErrNotFound) {
		response.NotFound(c, "participant not found")
		return
	}
	if err != nil {
		h.logger.Error("load participant failed", zap.String("participant_id", id.String()), zap.Error(err))
		response.ServiceUnavailable(c, "failed to load participant")
		return
	}
	if !p.IsPaid() {
		response.Conflict(c, "participant has no recorded payment")
		return
	}
	email := strings.TrimSpace(p.Email)
	if email == "" {
		response.BadRequest(c, "participant has no email address")
		return
	}

	el := &models.EmailLog{
		ParticipantID:  p.ID,
		EmailType:      models.EmailTypePaymentReceipt,
		RecipientEmail: email,
		RecipientName:  p.DisplayName(),
		ReceiptID:      p.DisplayCode(),
		Amount:         p.PaidAmount(),
		Status:         models.EmailLogStatusPending,
	}
	if err := h.store.Record(ctx, el); err != nil {
		h.logger.Error("record email log failed", zap.String("participant_id", id.String()), zap.Error(err))
		response.ServiceUnavailable(c, "failed to record resend")
		return
	}
	err = h.jobs.EnqueueReceipt(ctx, queue.ReceiptPayload{
		LogID:         el.ID,
		ParticipantID: p.ID,
		RequestedBy:   c.GetString(middleware.ContextIdentifier),
	})
	if err != nil {
		h.logger.Error("enqueue receipt failed", zap.String("log_id", el.ID.String()), zap.Error(err))
		response.ServiceUnavailable(c, "failed to queue resend")
		return
	}
	h.logger.Info("receipt resend queued", zap.String("participant_id", id.String()), zap.String("log_id", el.ID.String()))
	response.Accepted(c, el)
}
