package roster

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/retreat-admin/backend/internal/models"
	"github.com/retreat-admin/backend/pkg/response"
)

// Store is the participant persistence used by the handler.
type Store interface {
	List(ctx context.Context) ([]models.Participant, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Participant, error)
	UpdateUniqueID(ctx context.Context, id uuid.UUID, code string) (*models.Participant, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error)
}

// ScanRequest is the body for POST /participants/scan.
type ScanRequest struct {
	Code string `json:"code" binding:"required"`
}

// UpdateCodeRequest is the body for PATCH /participants/:id/code.
type UpdateCodeRequest struct {
	UniqueID string `json:"unique_id" binding:"required"`
}

// BulkDeleteRequest is the body for POST /participants/bulk-delete.
type BulkDeleteRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,dive,uuid"`
}

// Handler handles participant HTTP endpoints.
type Handler struct {
	store  Store
	logger *zap.Logger
}

// NewHandler creates a participants handler.
func NewHandler(store Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

// List handles GET /participants?status=&category=&q=.
func (h *Handler) List(c *gin.Context) {
	all, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list participants failed", zap.Error(err))
		response.ServiceUnavailable(c, "failed to load participants")
		return
	}
	f := ListFilter{Status: c.Query("status"), Category: c.Query("category"), Query: c.Query("q")}
	response.OK(c, f.Apply(all))
}

// Search handles GET /participants/search?q=. A blank query returns an empty list.
func (h *Handler) Search(c *gin.Context) {
	q := c.Query("q")
	all, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.Error("search participants failed", zap.Error(err))
		response.ServiceUnavailable(c, "failed to load participants")
		return
	}
	response.OK(c, Search(q, all))
}

// Scan handles POST /participants/scan with a decoded QR/barcode token.
func (h *Handler) Scan(c *gin.Context) {
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "code required")
		return
	}
	all, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.Error("scan lookup failed", zap.Error(err))
		response.ServiceUnavailable(c, "failed to load participants")
		return
	}
	p := ResolveScan(req.Code, all)
	if p == nil {
		response.NotFound(c, "no participant matches code")
		return
	}
	response.OK(c, p)
}

// Get handles GET /participants/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid participant id")
		return
	}
	p, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err, "failed to load participant")
		return
	}
	response.OK(c, p)
}

// UpdateCode handles PATCH /participants/:id/code.
func (h *Handler) UpdateCode(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid participant id")
		return
	}
	var req UpdateCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "unique_id required")
		return
	}
	p, err := h.store.UpdateUniqueID(c.Request.Context(), id, req.UniqueID)
	if err != nil {
		h.writeError(c, err, "failed to update code")
		return
	}
	h.logger.Info("participant code updated", zap.String("participant_id", id.String()), zap.String("code", p.UniqueID))
	response.OK(c, p)
}

// Delete handles DELETE /participants/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid participant id")
		return
	}
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err, "failed to delete participant")
		return
	}
	response.NoContent(c)
}

// BulkDelete handles POST /participants/bulk-delete.
func (h *Handler) BulkDelete(c *gin.Context) {
	var req BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, s := range req.IDs {
		ids = append(ids, uuid.MustParse(s))
	}
	n, err := h.store.DeleteMany(c.Request.Context(), ids)
	if err != nil {
		h.logger.Error("bulk delete failed", zap.Error(err), zap.Int("requested", len(ids)))
		response.ServiceUnavailable(c, "failed to delete participants")
		return
	}
	response.OK(c, gin.H{"deleted": n})
}

func (h *Handler) writeError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrEmptyCode):
		response.BadRequest(c, err.Error())
	default:
		h.logger.Error(msg, zap.Error(err))
		response.ServiceUnavailable(c, msg+": "+err.Error())
	}
}
