package payments

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/retreat-admin/backend/internal/middleware"
	"github.com/retreat-admin/backend/internal/models"
	"github.com/retreat-admin/backend/pkg/response"
)

// RosterLister loads the full roster.
type RosterLister interface {
	List(ctx context.Context) ([]models.Participant, error)
}

// EventLister reads the payment event log.
type EventLister interface {
	ListEvents(ctx context.Context, participantID uuid.UUID) ([]models.PaymentEvent, error)
}

// RecordRequest is the body for POST /payments. A missing amount uses the configured default fee.
type RecordRequest struct {
	ParticipantID    string   `json:"participant_id" binding:"required,uuid"`
	Amount           *float64 `json:"amount"`
	ExpectedRevision *int64   `json:"expected_revision"`
}

// HistoryResponse is the body of GET /payments/history.
type HistoryResponse struct {
	Entries []models.PaymentHistoryEntry `json:"entries"`
	Summary Summary                      `json:"summary"`
}

// Handler handles payment HTTP endpoints.
type Handler struct {
	ledger        *Ledger
	roster        RosterLister
	events        EventLister
	defaultAmount float64
	location      *time.Location
	now           func() time.Time
	logger        *zap.Logger
}

// NewHandler creates a payments handler.
func NewHandler(ledger *Ledger, roster RosterLister, events EventLister, defaultAmount float64, loc *time.Location, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Handler{ledger: ledger, roster: roster, events: events, defaultAmount: defaultAmount, location: loc, now: time.Now, logger: logger}
}

// Record handles POST /payments.
func (h *Handler) Record(c *gin.Context) {
	var req RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	amount := h.defaultAmount
	if req.Amount != nil {
		amount = *req.Amount
	}
	res, err := h.ledger.RecordPayment(c.Request.Context(), uuid.MustParse(req.ParticipantID), amount, Options{
		RecordedBy:       c.GetString(middleware.ContextIdentifier),
		ExpectedRevision: req.ExpectedRevision,
	})
	switch {
	case err == nil:
		response.OK(c, res)
	case errors.Is(err, ErrInvalidAmount):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrRevisionConflict):
		response.Conflict(c, err.Error())
	default:
		response.ServiceUnavailable(c, err.Error())
	}
}

// History handles GET /payments/history?mode=&date=&q=.
func (h *Handler) History(c *gin.Context) {
	mode := c.DefaultQuery("mode", ModeAll)
	date := c.Query("date")
	switch mode {
	case ModeAll, ModeToday:
	case ModeDate:
		if _, err := time.Parse(dateKeyLayout, date); err != nil {
			response.BadRequest(c, "date must be YYYY-MM-DD")
			return
		}
	default:
		response.BadRequest(c, "mode must be one of all, today, date")
		return
	}

	entries, err := h.roster.List(c.Request.Context())
	if err != nil {
		h.logger.Error("load roster for history failed", zap.Error(err))
		response.ServiceUnavailable(c, "failed to load payment history")
		return
	}
	rows := HistoryFilter{
		Mode:     mode,
		Date:     date,
		Search:   c.Query("q"),
		Now:      h.now(),
		Location: h.location,
	}.Apply(BuildHistory(entries))
	response.OK(c, HistoryResponse{Entries: rows, Summary: Summarize(rows)})
}

// Events handles GET /payments/events?participant_id=.
func (h *Handler) Events(c *gin.Context) {
	id, err := uuid.Parse(c.Query("participant_id"))
	if err != nil {
		response.BadRequest(c, "invalid participant_id")
		return
	}
	list, err := h.events.ListEvents(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("list payment events failed", zap.Error(err))
		response.ServiceUnavailable(c, "failed to load payment events")
		return
	}
	response.OK(c, list)
}
