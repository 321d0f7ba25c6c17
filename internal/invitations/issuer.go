// Package invitations issues and verifies signed staff invitation links.
package invitations

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/retreat-admin/backend/internal/models"
)

var (
	ErrInvalidInvitation  = errors.New("invalid invitation")
	ErrInvitationConsumed = errors.New("invitation already used")
)

// Grant is the capability carried by an invitation link.
type Grant struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	Role        models.Role `json:"role"`
	Permissions []string    `json:"permissions"`
	ExpiresAt   time.Time   `json:"expires_at"`
}

// Audience marks invitation tokens so they cannot stand in for any other token signed by the service.
const Audience = "staff-invitation"

type grantClaims struct {
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// Issuer signs invitation grants into shareable URLs.
type Issuer struct {
	secret  []byte
	ttl     time.Duration
	baseURL string
	now     func() time.Time
}

// NewIssuer creates an issuer. baseURL is the acceptance page, e.g. https://admin.example.com/accept-invitation.
func NewIssuer(secret string, ttl time.Duration, baseURL string) *Issuer {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, baseURL: baseURL, now: time.Now}
}

// Issue signs a grant for email with role and permissions and returns the acceptance URL.
// The URL keeps the plain email, role and permissions parameters next to the signed token.
func (i *Issuer) Issue(email string, role models.Role, permissions []string) (string, *Grant, error) {
	email = strings.TrimSpace(email)
	if email == "" || is.Email.Validate(email) != nil {
		return "", nil, fmt.Errorf("%w: email", ErrInvalidInvitation)
	}
	r, ok := models.ParseRole(string(role))
	if !ok {
		return "", nil, models.ErrUnknownRole
	}
	perms := normalizePermissions(permissions)
	for _, p := range perms {
		if !models.IsModule(p) {
			return "", nil, models.ErrUnknownModule
		}
	}

	now := i.now()
	g := &Grant{
		ID:          uuid.NewString(),
		Email:       email,
		Role:        r,
		Permissions: perms,
		ExpiresAt:   now.Add(i.ttl).Truncate(time.Second),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, grantClaims{
		Email:       g.Email,
		Role:        string(g.Role),
		Permissions: g.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        g.ID,
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(g.ExpiresAt),
		},
	}).SignedString(i.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign invitation: %w", err)
	}

	permsJSON, err := json.Marshal(g.Permissions)
	if err != nil {
		return "", nil, fmt.Errorf("encode permissions: %w", err)
	}
	q := url.Values{}
	q.Set("email", g.Email)
	q.Set("role", string(g.Role))
	q.Set("permissions", string(permsJSON))
	q.Set("token", token)
	return i.baseURL + "?" + q.Encode(), g, nil
}

// Decode verifies an invitation URL (or its query string, or a bare token) and returns the grant.
// Plain parameters present in the URL must agree with the signed token.
func (i *Issuer) Decode(raw string) (*Grant, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidInvitation
	}
	q := url.Values{}
	if strings.ContainsAny(raw, "?=") {
		query := raw
		if idx := strings.Index(raw, "?"); idx >= 0 {
			query = raw[idx+1:]
		}
		parsed, err := url.ParseQuery(query)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInvitation, err)
		}
		q = parsed
	} else {
		q.Set("token", raw)
	}

	token := q.Get("token")
	if token == "" {
		return nil, fmt.Errorf("%w: missing signature", ErrInvalidInvitation)
	}
	var claims grantClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired(), jwt.WithAudience(Audience))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: expired", ErrInvalidInvitation)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidInvitation, err)
	}

	role, ok := models.ParseRole(claims.Role)
	if !ok || claims.ID == "" || claims.Email == "" {
		return nil, fmt.Errorf("%w: malformed grant", ErrInvalidInvitation)
	}
	g := &Grant{
		ID:          claims.ID,
		Email:       claims.Email,
		Role:        role,
		Permissions: normalizePermissions(claims.Permissions),
		ExpiresAt:   claims.ExpiresAt.Time,
	}

	if e := q.Get("email"); e != "" && !strings.EqualFold(strings.TrimSpace(e), g.Email) {
		return nil, fmt.Errorf("%w: email does not match signature", ErrInvalidInvitation)
	}
	if r := q.Get("role"); r != "" && r != string(g.Role) {
		return nil, fmt.Errorf("%w: role does not match signature", ErrInvalidInvitation)
	}
	if p := q.Get("permissions"); p != "" {
		var plain []string
		if err := json.Unmarshal([]byte(p), &plain); err != nil {
			return nil, fmt.Errorf("%w: permissions: %v", ErrInvalidInvitation, err)
		}
		if !equalStrings(normalizePermissions(plain), g.Permissions) {
			return nil, fmt.Errorf("%w: permissions do not match signature", ErrInvalidInvitation)
		}
	}
	return g, nil
}

func normalizePermissions(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
