// Package staff manages dashboard accounts from the settings screen.
package staff

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/retreat-admin/backend/internal/auth"
	"github.com/retreat-admin/backend/internal/invitations"
	"github.com/retreat-admin/backend/internal/middleware"
	"github.com/retreat-admin/backend/internal/models"
	"github.com/retreat-admin/backend/pkg/response"
	"github.com/retreat-admin/backend/pkg/utils"
)

// Topic is the realtime topic account changes are published on.
const Topic = "staff"

const (
	EventAccountCreated = "account_created"
	EventAccountDeleted = "account_deleted"
)

// Store is the account persistence used by the handler.
type Store interface {
	List(ctx context.Context, role models.Role) ([]models.StaffAccount, error)
	Create(ctx context.Context, a *models.StaffAccount) (*models.StaffAccount, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Inviter issues invitation links.
type Inviter interface {
	Issue(email string, role models.Role, permissions []string) (string, *invitations.Grant, error)
}

// Publisher pushes account changes to connected settings screens.
type Publisher interface {
	Publish(topic, event string, payload interface{})
}

// InvitationResponse is returned by POST /staff/invitations.
type InvitationResponse struct {
	URL       string    `json:"url"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Handler handles staff account HTTP endpoints.
type Handler struct {
	store     Store
	inviter   Inviter
	publisher Publisher
	policy    AccessPolicy
	logger    *zap.Logger
}

// NewHandler creates a staff handler. publisher may be nil.
func NewHandler(store Store, inviter Inviter, publisher Publisher, policy AccessPolicy, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, inviter: inviter, publisher: publisher, policy: policy, logger: logger}
}

// List handles GET /staff?role=.
func (h *Handler) List(c *gin.Context) {
	var role models.Role
	if raw := c.Query("role"); raw != "" && raw != "all" {
		r, ok := models.ParseRole(raw)
		if !ok {
			response.BadRequest(c, "invalid role")
			return
		}
		role = r
	}
	list, err := h.store.List(c.Request.Context(), role)
	if err != nil {
		h.logger.Error("list staff failed", zap.Error(err))
		response.ServiceUnavailable(c, "failed to load accounts")
		return
	}
	response.OK(c, list)
}

// Create handles POST /staff for password accounts.
func (h *Handler) Create(c *gin.Context) {
	var req CreatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}
	role, _ := models.ParseRole(req.Role)
	if !h.mayGrant(c, role, req.Permissions) {
		return
	}
	h.create(c, &models.StaffAccount{
		AuthMethod:   models.AuthMethodPassword,
		EmailOrPhone: req.Identifier,
		PasswordHash: hash,
		DisplayName:  req.DisplayName,
		Role:         role,
		Permissions:  req.Permissions,
	})
}

// CreateGoogle handles POST /staff/google, pre-authorizing a Google account.
func (h *Handler) CreateGoogle(c *gin.Context) {
	var req CreateGoogleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if !h.policy.Allows(req.Email) {
		response.Forbidden(c, "email is not on the allowed list")
		return
	}
	role, _ := models.ParseRole(req.Role)
	if !h.mayGrant(c, role, req.Permissions) {
		return
	}
	h.create(c, &models.StaffAccount{
		AuthMethod:  models.AuthMethodGoogle,
		GoogleEmail: req.Email,
		DisplayName: req.DisplayName,
		Role:        role,
		Permissions: req.Permissions,
	})
}

func (h *Handler) create(c *gin.Context, a *models.StaffAccount) {
	if a.Permissions == nil {
		a.Permissions = []string{}
	}
	created, err := h.store.Create(c.Request.Context(), a)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrAccountExists):
		response.Conflict(c, "an account with this identity already exists")
		return
	case errors.Is(err, models.ErrAuthModeMixed), errors.Is(err, models.ErrUnknownRole),
		errors.Is(err, models.ErrUnknownModule), errors.Is(err, models.ErrMissingPassword),
		errors.Is(err, models.ErrMissingGoogle):
		response.BadRequest(c, err.Error())
		return
	default:
		h.logger.Error("create staff failed", zap.Error(err))
		response.ServiceUnavailable(c, "failed to create account")
		return
	}
	h.logger.Info("staff account created",
		zap.String("id", created.ID.String()),
		zap.String("identity", created.Identifier()),
		zap.String("role", string(created.Role)),
		zap.String("by", c.GetString(middleware.ContextIdentifier)),
	)
	h.publish(EventAccountCreated, created)
	response.Created(c, created)
}

// Delete handles DELETE /staff/:id. Staff cannot delete their own account.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid account id")
		return
	}
	if self, ok := c.Get(middleware.ContextAccountID); ok && self == id {
		response.Conflict(c, "cannot delete the signed-in account")
		return
	}
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, auth.ErrAccountNotFound) {
			response.NotFound(c, "account not found")
			return
		}
		h.logger.Error("delete staff failed", zap.Error(err))
		response.ServiceUnavailable(c, "failed to delete account")
		return
	}
	h.publish(EventAccountDeleted, gin.H{"id": id})
	response.NoContent(c)
}

// Invite handles POST /staff/invitations.
func (h *Handler) Invite(c *gin.Context) {
	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if !h.policy.Allows(req.Email) {
		response.Forbidden(c, "email is not on the allowed list")
		return
	}
	role, _ := models.ParseRole(req.Role)
	if !h.mayGrant(c, role, req.Permissions) {
		return
	}
	link, grant, err := h.inviter.Issue(req.Email, role, req.Permissions)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	h.logger.Info("invitation issued",
		zap.String("email", grant.Email),
		zap.String("role", string(grant.Role)),
		zap.String("token_id", grant.ID),
		zap.String("by", c.GetString(middleware.ContextIdentifier)),
	)
	response.Created(c, InvitationResponse{URL: link, Email: grant.Email, ExpiresAt: grant.ExpiresAt})
}

// mayGrant writes the rejection and returns false when the session may not hand out role and perms.
func (h *Handler) mayGrant(c *gin.Context, role models.Role, perms []string) bool {
	v, _ := c.Get(auth.ContextClaims)
	claims, _ := v.(*auth.Claims)
	if claims == nil {
		response.Unauthorized(c, "missing session")
		return false
	}
	if err := models.CanGrant(claims.Role, claims.Permissions, role, perms); err != nil {
		h.logger.Warn("grant rejected",
			zap.String("by", claims.Identifier),
			zap.String("caller_role", string(claims.Role)),
			zap.String("role", string(role)),
			zap.Strings("permissions", perms),
		)
		response.Forbidden(c, err.Error())
		return false
	}
	return true
}

func (h *Handler) publish(event string, payload interface{}) {
	if h.publisher != nil {
		h.publisher.Publish(Topic, event, payload)
	}
}
