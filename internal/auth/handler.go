package auth

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/retreat-admin/backend/internal/invitations"
	"github.com/retreat-admin/backend/pkg/response"
)

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// AcceptInvitationRequest is the body for POST /auth/invitations/accept.
type AcceptInvitationRequest struct {
	Invitation string `json:"invitation" binding:"required"`
	Assertion
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	gate   *Gate
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(gate *Gate, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{gate: gate, logger: logger}
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	s, err := h.gate.Authenticate(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, s)
}

// Google handles POST /auth/google.
func (h *Handler) Google(c *gin.Context) {
	var req Assertion
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.IDToken == "" && req.Code == "" {
		response.BadRequest(c, "id_token or code required")
		return
	}
	s, err := h.gate.AuthenticateFederated(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, s)
}

// AcceptInvitation handles POST /auth/invitations/accept.
func (h *Handler) AcceptInvitation(c *gin.Context) {
	var req AcceptInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	s, err := h.gate.AcceptInvitation(c.Request.Context(), req.Invitation, req.Assertion)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, s)
}

// Me handles GET /auth/me and echoes the verified session.
func (h *Handler) Me(c *gin.Context) {
	v, ok := c.Get(ContextClaims)
	claims, _ := v.(*Claims)
	if !ok || claims == nil {
		response.Unauthorized(c, "missing session")
		return
	}
	response.OK(c, claims)
}

// Logout handles POST /auth/logout. Sessions are stateless; the client drops its token.
func (h *Handler) Logout(c *gin.Context) {
	response.NoContent(c)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, ErrNotAuthorized), errors.Is(err, ErrEmailMismatch):
		response.Forbidden(c, err.Error())
	case errors.Is(err, invitations.ErrInvalidInvitation):
		response.BadRequest(c, err.Error())
	case errors.Is(err, invitations.ErrInvitationConsumed):
		response.Conflict(c, err.Error())
	case errors.Is(err, ErrFederatedDisabled), errors.Is(err, ErrStoreUnavailable):
		response.ServiceUnavailable(c, err.Error())
	default:
		h.logger.Error("auth request failed", zap.Error(err))
		response.Internal(c, "authentication failed")
	}
}
