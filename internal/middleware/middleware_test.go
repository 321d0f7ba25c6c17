package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retreat-admin/backend/internal/auth"
	"github.com/retreat-admin/backend/internal/models"
)

func newRouter(tokens *auth.JWTService, handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	chain := append([]gin.HandlerFunc{RequireSession(tokens)}, handlers...)
	chain = append(chain, func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextIdentifier))
	})
	r.GET("/x", chain...)
	return r
}

func tokenFor(t *testing.T, tokens *auth.JWTService, role models.Role, perms ...string) string {
	t.Helper()
	s, err := tokens.Issue(&models.StaffAccount{
		ID:           uuid.New(),
		AuthMethod:   models.AuthMethodPassword,
		EmailOrPhone: "desk@example.com",
		Role:         role,
		Permissions:  perms,
	})
	require.NoError(t, err)
	return s.Token
}

func get(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireSession(t *testing.T) {
	tokens := auth.NewJWTService("secret", 1)
	r := newRouter(tokens)

	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, tokenFor(t, auth.NewJWTService("other", 1), models.RoleAdmin)).Code)

	w := get(r, tokenFor(t, tokens, models.RoleStaff))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "desk@example.com", w.Body.String())
}

func TestRequirePermission(t *testing.T) {
	tokens := auth.NewJWTService("secret", 1)
	r := newRouter(tokens, RequirePermission(models.ModuleSettings))

	staff := tokenFor(t, tokens, models.RoleStaff, models.ModuleUsers, models.ModuleAttendance)
	assert.Equal(t, http.StatusForbidden, get(r, staff).Code)

	operator := tokenFor(t, tokens, models.RoleOperator, models.ModuleSettings)
	assert.Equal(t, http.StatusOK, get(r, operator).Code)

	admin := tokenFor(t, tokens, models.RoleAdmin)
	assert.Equal(t, http.StatusOK, get(r, admin).Code)
}

func TestRequirePermissionAnyOf(t *testing.T) {
	tokens := auth.NewJWTService("secret", 1)
	r := newRouter(tokens, RequirePermission(models.ModuleUsers, models.ModulePayment))

	assert.Equal(t, http.StatusOK, get(r, tokenFor(t, tokens, models.RoleStaff, models.ModulePayment)).Code)
	assert.Equal(t, http.StatusForbidden, get(r, tokenFor(t, tokens, models.RoleStaff, models.ModuleHistory)).Code)
}

func TestRequireRole(t *testing.T) {
	tokens := auth.NewJWTService("secret", 1)
	r := newRouter(tokens, RequireRole(models.RoleAdmin))

	assert.Equal(t, http.StatusForbidden, get(r, tokenFor(t, tokens, models.RoleOperator, models.AllModules()...)).Code)
	assert.Equal(t, http.StatusOK, get(r, tokenFor(t, tokens, models.RoleAdmin)).Code)
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(ParseOrigins(" http://localhost:3000/ , https://admin.example.com")))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", w.Header().Get("Vary"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "X-Cards-Skipped")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestOriginsCheckRequest(t *testing.T) {
	o := ParseOrigins("https://admin.example.com")

	req := httptest.NewRequest(http.MethodGet, "/staff/stream", nil)
	assert.True(t, o.CheckRequest(req), "non-browser clients carry no Origin")

	req.Header.Set("Origin", "https://admin.example.com")
	assert.True(t, o.CheckRequest(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, o.CheckRequest(req))

	assert.True(t, ParseOrigins("*").Allows("https://anything.example"))
	assert.False(t, ParseOrigins("").Allows("https://admin.example.com"))
}
