package volunteers

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/retreat-admin/backend/internal/models"
	"github.com/retreat-admin/backend/pkg/response"
)

// Store is the volunteer persistence used by the handler.
type Store interface {
	List(ctx context.Context) ([]models.Volunteer, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Volunteer, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error)
}

// BulkDeleteRequest is the body for POST /volunteers/bulk-delete.
type BulkDeleteRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,dive,uuid"`
}

// Handler handles volunteer HTTP endpoints.
type Handler struct {
	store  Store
	logger *zap.Logger
}

// NewHandler creates a volunteers handler.
func NewHandler(store Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

// List handles GET /volunteers?q=.
func (h *Handler) List(c *gin.Context) {
	all, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list volunteers failed", zap.Error(err))
		response.ServiceUnavailable(c, "failed to load volunteers")
		return
	}
	response.OK(c, Search(c.Query("q"), all))
}

// Get handles GET /volunteers/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid volunteer id")
		return
	}
	v, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, v)
}

// Delete handles DELETE /volunteers/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid volunteer id")
		return
	}
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	response.NoContent(c)
}

// BulkDelete handles POST /volunteers/bulk-delete.
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
		h.writeError(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": n})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, "volunteer not found")
		return
	}
	h.logger.Error("volunteer request failed", zap.Error(err))
	response.ServiceUnavailable(c, "volunteer store unavailable")
}
