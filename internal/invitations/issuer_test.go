package invitations

import (
	"encoding/json"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retreat-admin/backend/internal/models"
)

func newTestIssuer(now time.Time) *Issuer {
	i := NewIssuer("invite-secret", 24*time.Hour, "https://admin.example.com/accept-invitation")
	i.now = func() time.Time { return now }
	return i
}

func TestIssueKeepsPlainParameters(t *testing.T) {
	i := newTestIssuer(time.Now())
	link, g, err := i.Issue("a@b.com", models.RoleOperator, []string{"users"})
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "/accept-invitation", u.Path)
	q := u.Query()
	assert.Equal(t, "a@b.com", q.Get("email"))
	assert.Equal(t, "Operator", q.Get("role"))
	var perms []string
	require.NoError(t, json.Unmarshal([]byte(q.Get("permissions")), &perms))
	assert.Equal(t, []string{"users"}, perms)
	assert.NotEmpty(t, q.Get("token"))
	assert.NotEmpty(t, g.ID)
}

func TestDecodeRoundTrip(t *testing.T) {
	i := newTestIssuer(time.Now())
	link, issued, err := i.Issue("a@b.com", models.RoleOperator, []string{"users", "attendance", "users"})
	require.NoError(t, err)

	for _, raw := range []string{link, link[strings.Index(link, "?"):], url.Values{"token": {mustToken(t, link)}}.Encode(), mustToken(t, link)} {
		g, err := i.Decode(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, issued.ID, g.ID)
		assert.Equal(t, "a@b.com", g.Email)
		assert.Equal(t, models.RoleOperator, g.Role)
		assert.Equal(t, []string{"attendance", "users"}, g.Permissions)
	}
}

func mustToken(t *testing.T, link string) string {
	u, err := url.Parse(link)
	require.NoError(t, err)
	return u.Query().Get("token")
}

func TestDecodeRejectsTampering(t *testing.T) {
	i := newTestIssuer(time.Now())
	link, _, err := i.Issue("a@b.com", models.RoleStaff, []string{"users"})
	require.NoError(t, err)
	u, _ := url.Parse(link)

	tamper := func(key, value string) string {
		q := u.Query()
		q.Set(key, value)
		return "https://admin.example.com/accept-invitation?" + q.Encode()
	}

	for name, raw := range map[string]string{
		"role":        tamper("role", "Admin"),
		"permissions": tamper("permissions", `["users","settings"]`),
		"email":       tamper("email", "c@d.com"),
		"bad json":    tamper("permissions", `users`),
		"signature":   tamper("token", mustToken(t, link)+"x"),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := i.Decode(raw)
			assert.ErrorIs(t, err, ErrInvalidInvitation)
		})
	}
}

func TestDecodeRejectsUnsignedLinks(t *testing.T) {
	i := newTestIssuer(time.Now())
	_, err := i.Decode("https://admin.example.com/accept-invitation?email=a%40b.com&role=Admin&permissions=%5B%5D")
	assert.ErrorIs(t, err, ErrInvalidInvitation)
	_, err = i.Decode("")
	assert.ErrorIs(t, err, ErrInvalidInvitation)
}

func TestDecodeRejectsOtherSecret(t *testing.T) {
	link, _, err := newTestIssuer(time.Now()).Issue("a@b.com", models.RoleStaff, nil)
	require.NoError(t, err)

	other := NewIssuer("different", time.Hour, "")
	_, err = other.Decode(link)
	assert.ErrorIs(t, err, ErrInvalidInvitation)
}

func TestDecodeRejectsExpired(t *testing.T) {
	start := time.Now()
	i := newTestIssuer(start)
	link, _, err := i.Issue("a@b.com", models.RoleStaff, nil)
	require.NoError(t, err)

	i.now = func() time.Time { return start.Add(25 * time.Hour) }
	_, err = i.Decode(link)
	assert.ErrorIs(t, err, ErrInvalidInvitation)
	assert.Contains(t, err.Error(), "expired")
}

func TestIssueValidatesInput(t *testing.T) {
	i := newTestIssuer(time.Now())

	_, _, err := i.Issue("not-an-email", models.RoleStaff, nil)
	assert.ErrorIs(t, err, ErrInvalidInvitation)

	_, _, err = i.Issue("a@b.com", "Owner", nil)
	assert.ErrorIs(t, err, models.ErrUnknownRole)

	_, _, err = i.Issue("a@b.com", models.RoleStaff, []string{"billing"})
	assert.ErrorIs(t, err, models.ErrUnknownModule)
}

func TestDecodeRejectsTokenWithoutInvitationAudience(t *testing.T) {
	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, grantClaims{
		Email: "a@b.com",
		Role:  string(models.RoleAdmin),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "tok-1",
			Audience:  jwt.ClaimStrings{"dashboard-session"},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString([]byte("invite-secret"))
	require.NoError(t, err)

	_, err = newTestIssuer(now).Decode(token)
	assert.ErrorIs(t, err, ErrInvalidInvitation)
}
