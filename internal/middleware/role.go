package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/retreat-admin/backend/internal/models"
	"github.com/retreat-admin/backend/pkg/response"
)

// RequireRole returns a middleware that allows only the given roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[string]struct{})
	for _, r := range roles {
		allowed[string(r)] = struct{}{}
	}
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		if role == "" {
			response.Unauthorized(c, "missing session context")
			c.Abort()
			return
		}
		if _, ok := allowed[role]; !ok {
			response.Forbidden(c, "insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequirePermission returns a middleware that allows sessions holding any of the given modules.
// Admins pass every check.
func RequirePermission(modules ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		if role == "" {
			response.Unauthorized(c, "missing session context")
			c.Abort()
			return
		}
		perms := c.GetStringSlice(ContextPermissions)
		for _, m := range modules {
			if models.HasPermission(models.Role(role), perms, m) {
				c.Next()
				return
			}
		}
		response.Forbidden(c, "insufficient permissions")
		c.Abort()
	}
}
