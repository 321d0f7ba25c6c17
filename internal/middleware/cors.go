package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Origins is the set of dashboard front-ends allowed to call the API. "*" admits any origin.
type Origins map[string]bool

// ParseOrigins reads a comma-separated origin list such as "https://admin.example.com,http://localhost:5173".
// Trailing slashes are dropped so copied URLs match the Origin header.
func ParseOrigins(s string) Origins {
	m := make(Origins)
	for _, o := range strings.Split(s, ",") {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			m[o] = true
		}
	}
	return m
}

// Allows reports whether a browser on origin may use the API.
func (o Origins) Allows(origin string) bool {
	if o["*"] {
		return true
	}
	return origin != "" && o[origin]
}

// CheckRequest is the websocket upgrade origin check for /staff/stream.
// Requests without an Origin header do not come from a browser page and are let through; the session token still gates them.
func (o Origins) CheckRequest(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || o.Allows(origin)
}

// CORS sets cross-origin headers for the dashboard. Sessions travel as bearer tokens, so credentials are never allowed.
// Card downloads expose Content-Disposition and X-Cards-Skipped to the browser.
func CORS(origins Origins) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origins.Allows(origin) {
			if origins["*"] {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Header("Access-Control-Expose-Headers", "Content-Disposition, X-Cards-Skipped")
			c.Header("Access-Control-Max-Age", "600")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
