package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/retreat-admin/backend/internal/auth"
	"github.com/retreat-admin/backend/pkg/response"
)

const (
	// ContextAccountID is the key for the staff account ID in gin context.
	ContextAccountID = "account_id"
	// ContextRole is the key for the staff role in gin context.
	ContextRole = "account_role"
	// ContextPermissions is the key for the staff permission modules in gin context.
	ContextPermissions = "account_permissions"
	// ContextIdentifier is the key for the sign-in identity (email or phone) in gin context.
	ContextIdentifier = "account_identifier"
)

// TokenValidator verifies session tokens.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// RequireSession returns a middleware that validates the bearer session and sets its claims in context.
func RequireSession(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := tokens.Validate(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Unauthorized(c, "invalid or expired session")
			c.Abort()
			return
		}
		c.Set(auth.ContextClaims, claims)
		c.Set(ContextAccountID, claims.AccountID)
		c.Set(ContextRole, string(claims.Role))
		c.Set(ContextPermissions, claims.Permissions)
		c.Set(ContextIdentifier, claims.Identifier)
		c.Next()
	}
}
