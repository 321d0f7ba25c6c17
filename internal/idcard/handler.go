package idcard

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/retreat-admin/backend/internal/roster"
	"github.com/retreat-admin/backend/internal/volunteers"
	"github.com/retreat-admin/backend/pkg/response"
)

// BulkRequest selects participants for a bulk export, in output order.
type BulkRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,dive,uuid"`
}

func (r BulkRequest) uuids() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(r.IDs))
	for _, s := range r.IDs {
		out = append(out, uuid.MustParse(s))
	}
	return out
}

// Handler handles ID card HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an ID card handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// ParticipantCard handles GET /participants/:id/card.png.
func (h *Handler) ParticipantCard(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid participant id")
		return
	}
	exp, err := h.svc.ParticipantPNG(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Attachment(c, exp.Filename, exp.ContentType, exp.Body)
}

// VolunteerCard handles GET /volunteers/:id/card.png.
func (h *Handler) VolunteerCard(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid volunteer id")
		return
	}
	exp, err := h.svc.VolunteerPNG(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Attachment(c, exp.Filename, exp.ContentType, exp.Body)
}

// BulkPDF handles POST /participants/cards/pdf.
func (h *Handler) BulkPDF(c *gin.Context) {
	var req BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	exp, err := h.svc.BulkPDF(c.Request.Context(), req.uuids())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("X-Cards-Skipped", strconv.Itoa(len(exp.Skipped)))
	response.Attachment(c, exp.Filename, exp.ContentType, exp.Body)
}

// BulkPrint handles POST /participants/cards/print.
func (h *Handler) BulkPrint(c *gin.Context) {
	var req BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	exp, err := h.svc.BulkPrint(c.Request.Context(), req.uuids())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("X-Cards-Skipped", strconv.Itoa(len(exp.Skipped)))
	response.Inline(c, exp.Filename, exp.ContentType, exp.Body)
}

// Export handles POST /participants/cards/export, uploading the PDF and returning a download link.
func (h *Handler) Export(c *gin.Context) {
	var req BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	stored, err := h.svc.ExportToStorage(c.Request.Context(), req.uuids())
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Created(c, stored)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, roster.ErrNotFound), errors.Is(err, volunteers.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrMissingIdentifier), errors.Is(err, ErrNoCards):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrStorageDisabled):
		response.ServiceUnavailable(c, err.Error())
	case errors.Is(err, ErrRenderFailed):
		response.Internal(c, err.Error())
	default:
		h.logger.Error("card export failed", zap.Error(err))
		response.ServiceUnavailable(c, "card export failed")
	}
}
